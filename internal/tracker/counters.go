package tracker

import (
	"github.com/theirongolddev/worktime/internal/aggregate"
	"github.com/theirongolddev/worktime/internal/interval"
)

// Counters is a point-in-time summary of tracked durations in milliseconds.
type Counters struct {
	Running bool
	Labels  interval.Labels
	// Elapsed is the open interval's running time.
	Elapsed int64
	// Total covers the current year.
	Total int64
	Today int64
	// Workspace is the year's total for the label passed to Counters.
	Workspace int64
	// FromStart covers intervals tracked since this Tracker was opened.
	FromStart int64
}

// counterCache holds sums over closed intervals. It is recomputed lazily
// after invalidate and when the local day changes.
type counterCache struct {
	valid     bool
	total     int64
	dayStart  int64
	today     int64
	workspace map[string]int64
}

func (c *counterCache) invalidate() {
	c.valid = false
	c.workspace = nil
}

// Invalidate drops cached sums, for example after the store changed on disk.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.invalidate()
}

// Counters returns the current totals; workspace selects the label for the
// Workspace field and may be empty.
func (t *Tracker) Counters(workspace string) Counters {
	t.mu.Lock()
	defer t.mu.Unlock()

	nowT := t.now()
	now := nowT.UnixMilli()
	dayStart := t.cal.StartOfDay(nowT)
	dayStartMs := dayStart.UnixMilli()
	dayEndMs := t.cal.Next(aggregate.Day, dayStart).UnixMilli()

	closed := t.closedLocked()
	if !t.cache.valid {
		t.cache.total = interval.TotalDuration(closed)
		t.cache.dayStart = -1
		t.cache.workspace = make(map[string]int64)
		t.cache.valid = true
	}
	if t.cache.dayStart != dayStartMs {
		t.cache.today = aggregate.SumDuration(closed, dayStartMs, dayEndMs)
		t.cache.dayStart = dayStartMs
	}
	ws, ok := t.cache.workspace[workspace]
	if !ok && workspace != "" {
		ws = interval.TotalDuration(aggregate.FilterByLabel(closed, workspace))
		t.cache.workspace[workspace] = ws
	}

	c := Counters{
		Total:     t.cache.total,
		Today:     t.cache.today,
		Workspace: ws,
		FromStart: interval.TotalDuration(t.session),
	}
	if t.current != nil {
		c.Running = true
		c.Labels = t.current.Labels
		c.Elapsed = t.current.Elapsed(now)
		c.Total += c.Elapsed
		c.FromStart += c.Elapsed
		if workspace != "" && t.current.Labels.Contains(workspace) {
			c.Workspace += c.Elapsed
		}
		if c.Elapsed > 0 {
			c.Today += aggregate.SumDuration([]interval.Interval{t.current.Close(now)}, dayStartMs, dayEndMs)
		}
	}
	return c
}

func (t *Tracker) closedLocked() []interval.Interval {
	if len(t.pending) == 0 {
		return t.saved
	}
	out := make([]interval.Interval, 0, len(t.saved)+len(t.pending))
	out = append(out, t.saved...)
	out = append(out, t.pending...)
	return interval.Consolidate(out)
}
