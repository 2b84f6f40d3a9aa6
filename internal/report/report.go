// Package report derives the summary and per-day views shown by the log and
// report commands.
package report

import (
	"sort"
	"time"

	"github.com/theirongolddev/worktime/internal/aggregate"
	"github.com/theirongolddev/worktime/internal/interval"
)

// Summary holds durations in milliseconds for the standard ranges.
type Summary struct {
	Total     int64
	Today     int64
	Yesterday int64
	ThisWeek  int64
	Last7Days int64
	LastWeek  int64
	ThisMonth int64
	LastMonth int64
	// AveragePerDay divides the total by the number of days with any
	// tracked time.
	AveragePerDay int64
	ActiveDays    int
}

// Summarize computes the standard ranges relative to now. Intervals crossing
// a range boundary only count their overlapping part.
func Summarize(ivs []interval.Interval, now time.Time, cal aggregate.Calendar) Summary {
	today := cal.StartOfDay(now)
	tomorrow := cal.Next(aggregate.Day, today)
	week := cal.Floor(aggregate.Week, now)
	month := cal.Floor(aggregate.Month, now)

	s := Summary{
		Total:     interval.TotalDuration(ivs),
		Today:     aggregate.SumBetween(ivs, today, tomorrow),
		Yesterday: aggregate.SumBetween(ivs, today.AddDate(0, 0, -1), today),
		ThisWeek:  aggregate.SumBetween(ivs, week, cal.Next(aggregate.Week, week)),
		Last7Days: aggregate.SumBetween(ivs, tomorrow.AddDate(0, 0, -7), tomorrow),
		LastWeek:  aggregate.SumBetween(ivs, week.AddDate(0, 0, -7), week),
		ThisMonth: aggregate.SumBetween(ivs, month, cal.Next(aggregate.Month, month)),
		LastMonth: aggregate.SumBetween(ivs, month.AddDate(0, -1, 0), month),
	}

	for _, b := range aggregate.Bucketize(ivs, aggregate.Day, "", cal) {
		if b.Total > 0 {
			s.ActiveDays++
		}
	}
	if s.ActiveDays > 0 {
		s.AveragePerDay = s.Total / int64(s.ActiveDays)
	}
	return s
}

// WorkspaceTime is one label set's share of a day.
type WorkspaceTime struct {
	Workspace string
	Duration  int64
}

// Day is a row of the per-day log.
type Day struct {
	Date       time.Time
	Total      int64
	Workspaces []WorkspaceTime
}

// Daily breaks ivs down per local day, newest first. Within a day time is
// grouped by the interval's full label set, so the workspace durations add up
// to the day's total.
func Daily(ivs []interval.Interval, cal aggregate.Calendar) []Day {
	buckets := aggregate.Bucketize(ivs, aggregate.Day, "", cal)
	days := make([]Day, 0, len(buckets))

	for i := len(buckets) - 1; i >= 0; i-- {
		b := buckets[i]
		if b.Total == 0 {
			continue
		}
		from := b.Start.UnixMilli()
		to := cal.Next(aggregate.Day, b.Start).UnixMilli()

		byWorkspace := make(map[string]int64)
		for _, piece := range interval.CropManyToRange(ivs, from, to) {
			if piece.Duration() == 0 {
				continue
			}
			byWorkspace[piece.Labels.String()] += piece.Duration()
		}

		day := Day{Date: b.Start, Total: b.Total}
		for ws, d := range byWorkspace {
			day.Workspaces = append(day.Workspaces, WorkspaceTime{Workspace: ws, Duration: d})
		}
		sort.Slice(day.Workspaces, func(i, j int) bool {
			if day.Workspaces[i].Duration != day.Workspaces[j].Duration {
				return day.Workspaces[i].Duration > day.Workspaces[j].Duration
			}
			return day.Workspaces[i].Workspace < day.Workspaces[j].Workspace
		})
		days = append(days, day)
	}
	return days
}

// Recent keeps the buckets whose start is within the last n units of now.
// n <= 0 keeps everything.
func Recent(buckets []aggregate.Bucket, unit aggregate.Unit, n int, now time.Time, cal aggregate.Calendar) []aggregate.Bucket {
	if n <= 0 {
		return buckets
	}
	cutoff := cal.Floor(unit, now)
	for i := 1; i < n; i++ {
		cutoff = prev(cal, unit, cutoff)
	}
	var out []aggregate.Bucket
	for _, b := range buckets {
		if !b.Start.Before(cutoff) {
			out = append(out, b)
		}
	}
	return out
}

func prev(cal aggregate.Calendar, unit aggregate.Unit, start time.Time) time.Time {
	switch unit {
	case aggregate.Week:
		return start.AddDate(0, 0, -7)
	case aggregate.Month:
		return start.AddDate(0, -1, 0)
	}
	return cal.StartOfDay(start.AddDate(0, 0, -1))
}

// Series returns exactly n consecutive buckets of unit ending with the one
// containing now, oldest first. Buckets without tracked time are zero.
func Series(ivs []interval.Interval, unit aggregate.Unit, label string, n int, now time.Time, cal aggregate.Calendar) []aggregate.Bucket {
	if n <= 0 {
		return nil
	}
	byStart := make(map[int64]aggregate.Bucket)
	for _, b := range Recent(aggregate.Bucketize(ivs, unit, label, cal), unit, n, now, cal) {
		byStart[b.Start.UnixMilli()] = b
	}

	start := cal.Floor(unit, now)
	for i := 1; i < n; i++ {
		start = prev(cal, unit, start)
	}
	out := make([]aggregate.Bucket, 0, n)
	for i := 0; i < n; i++ {
		b, ok := byStart[start.UnixMilli()]
		if !ok {
			b = aggregate.Bucket{Start: start, PerLabel: map[string]int64{}}
		}
		out = append(out, b)
		start = cal.Next(unit, start)
	}
	return out
}
