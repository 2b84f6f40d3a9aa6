// Package interval implements labeled time intervals and the consolidation
// engine that reduces overlapping tracking sessions to a canonical timeline.
//
// All timestamps are epoch milliseconds. Every function in this package is
// pure: inputs are never mutated and results are freshly allocated.
package interval

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval reports an interval whose end precedes its start or
// that carries no labels.
var ErrInvalidInterval = errors.New("invalid interval")

// Interval is a closed tracking session [Start, End) tagged with one or more
// workspace labels.
type Interval struct {
	Start  int64
	End    int64
	Labels Labels
}

// New builds an interval from times, truncated to milliseconds.
func New(start, end time.Time, labels ...string) Interval {
	return Interval{
		Start:  start.UnixMilli(),
		End:    end.UnixMilli(),
		Labels: NewLabels(labels...),
	}
}

// Duration returns End-Start in milliseconds.
func (iv Interval) Duration() int64 {
	return iv.End - iv.Start
}

// StartTime converts Start to a time.Time in loc.
func (iv Interval) StartTime(loc *time.Location) time.Time {
	return time.UnixMilli(iv.Start).In(loc)
}

// EndTime converts End to a time.Time in loc.
func (iv Interval) EndTime(loc *time.Location) time.Time {
	return time.UnixMilli(iv.End).In(loc)
}

// Validate checks the ordering and label invariants.
func (iv Interval) Validate() error {
	if iv.End < iv.Start {
		return fmt.Errorf("%w: end %d before start %d", ErrInvalidInterval, iv.End, iv.Start)
	}
	if len(iv.Labels) == 0 {
		return fmt.Errorf("%w: no workspace label at %d", ErrInvalidInterval, iv.Start)
	}
	return nil
}

// ValidateAll returns the first validation error in ivs, annotated with its index.
func ValidateAll(ivs []Interval) error {
	for i, iv := range ivs {
		if err := iv.Validate(); err != nil {
			return fmt.Errorf("interval %d: %w", i, err)
		}
	}
	return nil
}

// EqualAll reports whether a and b hold the same intervals in the same order.
func EqualAll(a, b []Interval) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Start != b[i].Start || a[i].End != b[i].End || !a[i].Labels.Equal(b[i].Labels) {
			return false
		}
	}
	return true
}

// TotalDuration sums the durations of ivs.
func TotalDuration(ivs []Interval) int64 {
	var sum int64
	for _, iv := range ivs {
		sum += iv.Duration()
	}
	return sum
}

func (iv Interval) String() string {
	return fmt.Sprintf("{%d,%d,%q}", iv.Start, iv.End, iv.Labels.String())
}

// Open is the live, not yet closed interval. It is persisted with a null end
// and never enters consolidation until closed.
type Open struct {
	Start  int64
	Labels Labels
}

// Close ends the interval at end.
func (o Open) Close(end int64) Interval {
	return Interval{Start: o.Start, End: end, Labels: o.Labels}
}

// Elapsed returns the milliseconds between Start and now.
func (o Open) Elapsed(now int64) int64 {
	if now < o.Start {
		return 0
	}
	return now - o.Start
}
