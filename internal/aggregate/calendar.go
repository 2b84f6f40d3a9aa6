// Package aggregate sums canonical interval sets over time ranges and
// calendar buckets.
package aggregate

import (
	"fmt"
	"strings"
	"time"
)

// Unit is a bucket granularity.
type Unit int

const (
	Day Unit = iota
	Week
	Month
)

func (u Unit) String() string {
	switch u {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

// ParseUnit accepts "day", "week" or "month" (case-insensitive, plural ok).
func ParseUnit(s string) (Unit, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	}
	return Day, fmt.Errorf("unknown bucket unit %q (want day, week or month)", s)
}

// Calendar fixes the time zone and first weekday used for bucketing.
type Calendar struct {
	Loc       *time.Location
	WeekStart time.Weekday
}

// LocalCalendar returns a Calendar in time.Local starting weeks on weekStart.
func LocalCalendar(weekStart time.Weekday) Calendar {
	return Calendar{Loc: time.Local, WeekStart: weekStart}
}

func (c Calendar) loc() *time.Location {
	if c.Loc == nil {
		return time.Local
	}
	return c.Loc
}

// StartOfDay returns local midnight of t's day.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	t = t.In(c.loc())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc())
}

// Floor returns the start of the bucket of unit u containing t.
func (c Calendar) Floor(u Unit, t time.Time) time.Time {
	day := c.StartOfDay(t)
	switch u {
	case Week:
		back := (int(day.Weekday()) - int(c.WeekStart) + 7) % 7
		return day.AddDate(0, 0, -back)
	case Month:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, c.loc())
	}
	return day
}

// Next returns the start of the bucket following the one starting at start.
// Calendar arithmetic keeps DST days at their real length.
func (c Calendar) Next(u Unit, start time.Time) time.Time {
	switch u {
	case Week:
		return start.AddDate(0, 0, 7)
	case Month:
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(0, 0, 1)
}

// ParseWeekday maps a weekday name ("monday", "sun", ...) to time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Monday, fmt.Errorf("unknown weekday %q", s)
}
