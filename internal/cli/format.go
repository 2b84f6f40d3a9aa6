// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strings"
	"time"
)

// ClockLayout is the timestamp format used for reading and editing intervals.
const ClockLayout = "2006-01-02 15:04:05"

// FormatDuration formats milliseconds into a human-readable duration.
// e.g., 93780000 -> "1d 2h 3m", 125000 -> "2m", 45000 -> "45s"
func FormatDuration(ms int64) string {
	secs := ms / 1000
	if secs <= 0 {
		return "0s"
	}
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}

	days := secs / 86400
	hours := (secs % 86400) / 3600
	mins := (secs % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if mins > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}
	return strings.Join(parts, " ")
}

// FormatCountdown is FormatDuration with seconds kept under 90s.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d <= 90*time.Second && d >= time.Minute {
		return fmt.Sprintf("%dm %ds", int(d/time.Minute), int(d%time.Minute/time.Second))
	}
	return FormatDuration(d.Milliseconds())
}

// FormatHours formats milliseconds as decimal hours, e.g. "7.25".
func FormatHours(ms int64) string {
	return fmt.Sprintf("%.2f", float64(ms)/float64(time.Hour.Milliseconds()))
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDay formats a day as "2006-01-02 Mon".
func FormatDay(t time.Time) string {
	return t.Format("2006-01-02") + " " + FormatDayOfWeek(int(t.Weekday()))
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}

// FormatClock formats epoch milliseconds in loc using ClockLayout.
func FormatClock(ms int64, loc *time.Location) string {
	return time.UnixMilli(ms).In(loc).Format(ClockLayout)
}

// ParseClock parses a ClockLayout timestamp in loc into epoch milliseconds.
func ParseClock(s string, loc *time.Location) (int64, error) {
	t, err := time.ParseInLocation(ClockLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return 0, fmt.Errorf("want %q: %w", ClockLayout, err)
	}
	return t.UnixMilli(), nil
}
