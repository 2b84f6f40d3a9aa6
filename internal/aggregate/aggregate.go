package aggregate

import (
	"sort"
	"time"

	"github.com/theirongolddev/worktime/internal/interval"
)

// Bucket holds durations for one calendar window.
type Bucket struct {
	Start time.Time
	// Total counts each canonical interval once.
	Total int64
	// PerLabel attributes an interval's full duration to every label it
	// carries, so the values can add up to more than Total.
	PerLabel map[string]int64
}

// LabelIntervals groups intervals by a single workspace label.
type LabelIntervals struct {
	Label     string
	Intervals []interval.Interval
}

// SumDuration returns the milliseconds of ivs falling inside [from, to).
func SumDuration(ivs []interval.Interval, from, to int64) int64 {
	if to <= from {
		return 0
	}
	return interval.TotalDuration(interval.CropManyToRange(ivs, from, to))
}

// SumBetween is SumDuration over a time range.
func SumBetween(ivs []interval.Interval, from, to time.Time) int64 {
	return SumDuration(ivs, from.UnixMilli(), to.UnixMilli())
}

// FilterByLabel keeps intervals whose label set contains label.
// An empty label keeps everything.
func FilterByLabel(ivs []interval.Interval, label string) []interval.Interval {
	if label == "" {
		return ivs
	}
	var out []interval.Interval
	for _, iv := range ivs {
		if iv.Labels.Contains(label) {
			out = append(out, iv)
		}
	}
	return out
}

// Bucketize spreads ivs over unit-sized calendar buckets, oldest first.
// A session crossing a bucket boundary is cropped against each successive
// window, and every piece counts toward the bucket its own start falls in.
func Bucketize(ivs []interval.Interval, unit Unit, label string, cal Calendar) []Bucket {
	byStart := make(map[int64]*Bucket)

	for _, iv := range FilterByLabel(ivs, label) {
		winStart := cal.Floor(unit, iv.StartTime(cal.loc()))
		for {
			winEnd := cal.Next(unit, winStart)
			piece, ok := interval.CropToRange(iv, winStart.UnixMilli(), winEnd.UnixMilli())
			if !ok {
				break
			}

			key := cal.Floor(unit, piece.StartTime(cal.loc()))
			b, ok := byStart[key.UnixMilli()]
			if !ok {
				b = &Bucket{Start: key, PerLabel: make(map[string]int64)}
				byStart[key.UnixMilli()] = b
			}
			d := piece.Duration()
			b.Total += d
			for _, l := range piece.Labels {
				b.PerLabel[l] += d
			}

			if iv.End <= winEnd.UnixMilli() {
				break
			}
			winStart = winEnd
		}
	}

	buckets := make([]Bucket, 0, len(byStart))
	for _, b := range byStart {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})
	return buckets
}

// GroupByLabel splits ivs into one group per label, sorted by label.
// An interval with several labels appears in each of its groups.
func GroupByLabel(ivs []interval.Interval) []LabelIntervals {
	groups := make(map[string][]interval.Interval)
	for _, iv := range ivs {
		for _, l := range iv.Labels {
			groups[l] = append(groups[l], iv)
		}
	}

	out := make([]LabelIntervals, 0, len(groups))
	for l, g := range groups {
		out = append(out, LabelIntervals{Label: l, Intervals: g})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// LabelTotals returns each label's summed duration inside [from, to).
func LabelTotals(ivs []interval.Interval, from, to int64) map[string]int64 {
	totals := make(map[string]int64)
	for _, iv := range interval.CropManyToRange(ivs, from, to) {
		for _, l := range iv.Labels {
			totals[l] += iv.Duration()
		}
	}
	return totals
}
