// Package tracker owns the live tracking state: the open interval, the
// closed-but-unsaved intervals of this session and the saved history of the
// current year.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/worktime/internal/aggregate"
	"github.com/theirongolddev/worktime/internal/interval"
	"github.com/theirongolddev/worktime/internal/logging"
	"github.com/theirongolddev/worktime/internal/store"
)

var (
	// ErrNotRunning is returned by Stop when no interval is open.
	ErrNotRunning = errors.New("not tracking")
	// ErrIndexOutOfRange is returned by the history editing operations.
	ErrIndexOutOfRange = errors.New("interval index out of range")
)

// Options configures a Tracker.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Loc is the zone used for "today". Defaults to time.Local.
	Loc *time.Location
	Log *logrus.Entry
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu sync.Mutex

	store   store.Store
	year    int
	saved   []interval.Interval
	pending []interval.Interval
	current *interval.Open
	// session holds intervals closed by this Tracker, for FromStart.
	session []interval.Interval

	cache counterCache
	cal   aggregate.Calendar
	now   func() time.Time
	log   *logrus.Entry
}

// Open loads the current year's history, consolidates it, writes the result
// back and restores the persisted open interval.
func Open(ctx context.Context, st store.Store, opts Options) (*Tracker, error) {
	t := &Tracker{
		store: st,
		now:   opts.Now,
		log:   opts.Log,
		cal:   aggregate.Calendar{Loc: opts.Loc, WeekStart: time.Monday},
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.log == nil {
		t.log = logging.For("tracker")
	}
	t.year = store.YearOf(t.nowMs())

	err := st.WithLock(ctx, func() error {
		if err := t.loadAndConsolidate(ctx); err != nil {
			return err
		}
		cur, err := st.LoadCurrent(ctx)
		if err != nil {
			return err
		}
		t.current = cur
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("opening tracker: %w", err)
	}
	return t, nil
}

// loadAndConsolidate must run under the store lock.
func (t *Tracker) loadAndConsolidate(ctx context.Context) error {
	saved, err := t.store.Load(ctx, t.year)
	if err != nil {
		return fmt.Errorf("loading %d: %w", t.year, err)
	}
	canonical := interval.SortByStart(interval.Consolidate(saved))
	if !interval.EqualAll(saved, canonical) {
		t.log.WithFields(logrus.Fields{
			"year":   t.year,
			"before": len(saved),
			"after":  len(canonical),
		}).Debug("consolidated stored history")
		if err := t.store.Save(ctx, t.year, canonical); err != nil {
			return fmt.Errorf("saving %d: %w", t.year, err)
		}
	}
	t.saved = canonical
	t.cache.invalidate()
	return nil
}

func (t *Tracker) nowMs() int64 {
	return t.now().UnixMilli()
}

// Start opens an interval for labels. If one is already open for a different
// label set it is closed first; the same label set is a no-op.
func (t *Tracker) Start(ctx context.Context, labels interval.Labels) error {
	if len(labels) == 0 {
		return fmt.Errorf("%w: no workspace", interval.ErrInvalidInterval)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil && t.current.Labels.Equal(labels) {
		return nil
	}
	now := t.nowMs()
	if t.current != nil {
		t.closeCurrent(now)
	}
	t.current = &interval.Open{Start: now, Labels: labels}
	t.log.WithField("workspace", labels.String()).Debug("tracking started")
	return t.persistCurrent(ctx)
}

// Stop closes the open interval at now and queues it for the next Flush.
// A zero-length interval is returned but not kept.
func (t *Tracker) Stop(ctx context.Context) (interval.Interval, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return interval.Interval{}, ErrNotRunning
	}
	iv := t.closeCurrent(t.nowMs())
	t.log.WithField("workspace", iv.Labels.String()).Debug("tracking stopped")
	return iv, t.persistCurrent(ctx)
}

// Toggle stops a running tracker or starts one for labels. It reports whether
// tracking is running afterwards.
func (t *Tracker) Toggle(ctx context.Context, labels interval.Labels) (bool, error) {
	if t.Running() {
		_, err := t.Stop(ctx)
		if errors.Is(err, ErrNotRunning) {
			err = nil
		}
		return false, err
	}
	return true, t.Start(ctx, labels)
}

func (t *Tracker) closeCurrent(now int64) interval.Interval {
	iv := t.current.Close(now)
	t.current = nil
	if iv.Duration() > 0 {
		t.pending = append(t.pending, iv)
		t.session = append(t.session, iv)
		t.cache.invalidate()
	}
	return iv
}

func (t *Tracker) persistCurrent(ctx context.Context) error {
	cur := t.current
	return t.store.WithLock(ctx, func() error {
		return t.store.SaveCurrent(ctx, cur)
	})
}

// Flush folds the pending intervals into the stored history. Under the store
// lock the history is re-read, consolidated with the pending intervals,
// sorted and saved. Pending intervals crossing a year boundary are split
// across both year shards.
func (t *Tracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushLocked(ctx)
}

func (t *Tracker) flushLocked(ctx context.Context) error {
	nowYear := store.YearOf(t.nowMs())
	if len(t.pending) == 0 && nowYear == t.year {
		return nil
	}

	return t.store.WithLock(ctx, func() error {
		shards := store.ShardByYear(t.pending)
		years := make([]int, 0, len(shards))
		for y := range shards {
			years = append(years, y)
		}
		sort.Ints(years)

		for _, year := range years {
			stored, err := t.store.Load(ctx, year)
			if err != nil {
				return fmt.Errorf("loading %d: %w", year, err)
			}
			merged := interval.SortByStart(interval.Consolidate(append(stored, shards[year]...)))
			if err := t.store.Save(ctx, year, merged); err != nil {
				return fmt.Errorf("saving %d: %w", year, err)
			}
			if year == t.year {
				t.saved = merged
			}
			t.log.WithFields(logrus.Fields{
				"year":    year,
				"pending": len(shards[year]),
				"stored":  len(merged),
			}).Debug("flushed")
		}
		t.pending = nil
		t.cache.invalidate()

		if nowYear != t.year {
			t.year = nowYear
			return t.loadAndConsolidate(ctx)
		}
		return nil
	})
}

// Reload re-reads the saved history and open interval from the store.
// Pending intervals are kept. The history is held in canonical form even when
// another process wrote overlapping intervals.
func (t *Tracker) Reload(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	saved, err := t.store.Load(ctx, t.year)
	if err != nil {
		return fmt.Errorf("loading %d: %w", t.year, err)
	}
	cur, err := t.store.LoadCurrent(ctx)
	if err != nil {
		return err
	}
	t.saved = interval.SortByStart(interval.Consolidate(saved))
	t.current = cur
	t.cache.invalidate()
	return nil
}

// Replace overwrites the current year's history with ivs after validating
// and consolidating them. Pending intervals are discarded, so callers should
// Flush before reading the history they edit.
func (t *Tracker) Replace(ctx context.Context, ivs []interval.Interval) error {
	if err := interval.ValidateAll(ivs); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.replaceLocked(ctx, ivs)
}

func (t *Tracker) replaceLocked(ctx context.Context, ivs []interval.Interval) error {
	canonical := interval.SortByStart(interval.Consolidate(ivs))
	err := t.store.WithLock(ctx, func() error {
		return t.store.Save(ctx, t.year, canonical)
	})
	if err != nil {
		return fmt.Errorf("saving %d: %w", t.year, err)
	}
	t.saved = canonical
	t.pending = nil
	t.cache.invalidate()
	return nil
}

// Update replaces the saved interval at index i.
func (t *Tracker) Update(ctx context.Context, i int, iv interval.Interval) error {
	if err := iv.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.saved) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	next := append([]interval.Interval(nil), t.saved...)
	next[i] = iv
	return t.replaceLocked(ctx, next)
}

// Delete removes the saved interval at index i.
func (t *Tracker) Delete(ctx context.Context, i int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.saved) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	next := make([]interval.Interval, 0, len(t.saved)-1)
	next = append(next, t.saved[:i]...)
	next = append(next, t.saved[i+1:]...)
	return t.replaceLocked(ctx, next)
}

// Clear empties the current year's history. A running interval restarts at
// now so the cleared time is not counted again.
func (t *Tracker) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.replaceLocked(ctx, nil); err != nil {
		return err
	}
	t.session = nil
	if t.current != nil {
		t.current = &interval.Open{Start: t.nowMs(), Labels: t.current.Labels}
		return t.persistCurrent(ctx)
	}
	return nil
}

// Running reports whether an interval is open.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current != nil
}

// Current returns a copy of the open interval, or nil.
func (t *Tracker) Current() *interval.Open {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	cur := *t.current
	return &cur
}

// Year is the UTC year whose history the tracker holds.
func (t *Tracker) Year() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.year
}

// Saved returns a copy of the stored history of the current year.
func (t *Tracker) Saved() []interval.Interval {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]interval.Interval(nil), t.saved...)
}

// Pending returns the number of closed intervals waiting for Flush.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// All returns the canonical view of saved, pending and the open interval
// materialized with End = now.
func (t *Tracker) All() []interval.Interval {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allLocked(t.nowMs())
}

func (t *Tracker) allLocked(now int64) []interval.Interval {
	ivs := make([]interval.Interval, 0, len(t.saved)+len(t.pending)+1)
	ivs = append(ivs, t.saved...)
	ivs = append(ivs, t.pending...)
	if t.current != nil {
		if iv := t.current.Close(now); iv.Duration() > 0 {
			ivs = append(ivs, iv)
		}
	}
	if len(ivs) == len(t.saved) {
		return ivs
	}
	return interval.SortByStart(interval.Consolidate(ivs))
}

// History returns the canonical intervals of year. The current year includes
// unsaved and running time.
func (t *Tracker) History(ctx context.Context, year int) ([]interval.Interval, error) {
	t.mu.Lock()
	if year == t.year {
		defer t.mu.Unlock()
		return t.allLocked(t.nowMs()), nil
	}
	t.mu.Unlock()
	return t.store.Load(ctx, year)
}
