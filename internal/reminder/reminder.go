// Package reminder schedules break reminders relative to tracked time.
package reminder

import (
	"fmt"
	"time"
)

// countdownWindow is how long before a break the countdown notice fires.
const countdownWindow = 90 * time.Second

// Reminder is a configured break reminder.
type Reminder struct {
	Title               string `toml:"title"`
	IntervalMinutes     int    `toml:"interval_minutes"`
	PauseMinutes        int    `toml:"pause_minutes"`
	AutoPause           bool   `toml:"auto_pause"`
	AutoStartAfterPause bool   `toml:"auto_start_after_pause"`
	ShowCountdown       bool   `toml:"show_countdown"`
}

// Interval is the time between breaks.
func (r Reminder) Interval() time.Duration {
	return time.Duration(r.IntervalMinutes) * time.Minute
}

// Pause is the break length.
func (r Reminder) Pause() time.Duration {
	return time.Duration(r.PauseMinutes) * time.Minute
}

// Validate rejects reminders that would fire continuously.
func (r Reminder) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("reminder without title")
	}
	if r.IntervalMinutes <= 0 {
		return fmt.Errorf("reminder %q: interval_minutes must be positive", r.Title)
	}
	if r.PauseMinutes < 0 {
		return fmt.Errorf("reminder %q: pause_minutes must not be negative", r.Title)
	}
	return nil
}

// EventKind identifies what a Tick produced.
type EventKind int

const (
	// Countdown warns that a break is close.
	Countdown EventKind = iota
	// BreakDue fires when a reminder's interval elapsed.
	BreakDue
	// BreakOver fires when a break's pause elapsed.
	BreakOver
)

func (k EventKind) String() string {
	switch k {
	case Countdown:
		return "countdown"
	case BreakDue:
		return "break-due"
	case BreakOver:
		return "break-over"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is a notification the caller should deliver.
type Event struct {
	Kind      EventKind
	Reminder  Reminder
	Remaining time.Duration
}

// Message renders the event as a one-line notification body.
func (e Event) Message() string {
	switch e.Kind {
	case Countdown:
		return fmt.Sprintf("%s in %s", e.Reminder.Title, e.Remaining.Round(time.Second))
	case BreakDue:
		if e.Reminder.PauseMinutes > 0 {
			return fmt.Sprintf("START %s (%dm)", e.Reminder.Title, e.Reminder.PauseMinutes)
		}
		return e.Reminder.Title
	case BreakOver:
		return "END " + e.Reminder.Title
	}
	return e.Reminder.Title
}

type entry struct {
	Reminder
	lastPauseEnd  time.Time
	pauseStart    time.Time
	inPause       bool
	countdownSent bool
}

func (e *entry) due() time.Time {
	return e.lastPauseEnd.Add(e.Interval())
}

// Schedule tracks break deadlines. It is not safe for concurrent use.
type Schedule struct {
	entries []*entry
	// stoppedAt freezes deadlines while tracking is stopped.
	stoppedAt time.Time
}

// NewSchedule arms every reminder at now.
func NewSchedule(reminders []Reminder, now time.Time) *Schedule {
	s := &Schedule{}
	for _, r := range reminders {
		s.entries = append(s.entries, &entry{Reminder: r, lastPauseEnd: now})
	}
	return s
}

// Len returns the number of reminders.
func (s *Schedule) Len() int { return len(s.entries) }

// Next returns the reminder due soonest and the time left until it, measured
// from now or from the moment tracking stopped. ok is false when there are no
// reminders or one is in its pause.
func (s *Schedule) Next(now time.Time) (r Reminder, left time.Duration, ok bool) {
	if _, paused := s.InPause(); paused {
		return Reminder{}, 0, false
	}
	ref := now
	if !s.stoppedAt.IsZero() {
		ref = s.stoppedAt
	}
	var best *entry
	for _, e := range s.entries {
		if best == nil || e.due().Before(best.due()) {
			best = e
		}
	}
	if best == nil {
		return Reminder{}, 0, false
	}
	left = best.due().Sub(ref)
	if left < 0 {
		left = 0
	}
	return best.Reminder, left, true
}

// InPause returns the first reminder currently in its break.
func (s *Schedule) InPause() (Reminder, bool) {
	for _, e := range s.entries {
		if e.inPause {
			return e.Reminder, true
		}
	}
	return Reminder{}, false
}

// StartPause puts the reminder titled title into its break.
func (s *Schedule) StartPause(title string, now time.Time) bool {
	for _, e := range s.entries {
		if e.Title == title {
			e.inPause = true
			e.pauseStart = now
			e.countdownSent = false
			return true
		}
	}
	return false
}

// EndPause ends the reminder's break and rearms it at now.
func (s *Schedule) EndPause(title string, now time.Time) bool {
	for _, e := range s.entries {
		if e.Title == title {
			e.inPause = false
			e.lastPauseEnd = now
			e.countdownSent = false
			return true
		}
	}
	return false
}

// Stopped freezes deadlines while tracking is stopped.
func (s *Schedule) Stopped(now time.Time) {
	if s.stoppedAt.IsZero() {
		s.stoppedAt = now
	}
}

// Resumed pushes every deadline back by the time spent stopped.
func (s *Schedule) Resumed(now time.Time) {
	if s.stoppedAt.IsZero() {
		return
	}
	s.Shift(now.Sub(s.stoppedAt))
	s.stoppedAt = time.Time{}
}

// Shift moves every deadline d later.
func (s *Schedule) Shift(d time.Duration) {
	for _, e := range s.entries {
		e.lastPauseEnd = e.lastPauseEnd.Add(d)
	}
}

// Tick advances the schedule to now and returns the events to deliver.
// Nothing fires while tracking is stopped.
func (s *Schedule) Tick(now time.Time) []Event {
	if !s.stoppedAt.IsZero() {
		return nil
	}
	var events []Event
	for _, e := range s.entries {
		if e.inPause {
			if !now.Before(e.pauseStart.Add(e.Pause())) {
				e.inPause = false
				e.lastPauseEnd = now
				e.countdownSent = false
				if e.AutoStartAfterPause && e.PauseMinutes > 0 {
					events = append(events, Event{Kind: BreakOver, Reminder: e.Reminder})
				}
			}
			continue
		}

		left := e.due().Sub(now)
		switch {
		case left <= 0:
			events = append(events, Event{Kind: BreakDue, Reminder: e.Reminder})
			if e.AutoPause && e.PauseMinutes > 0 {
				e.inPause = true
				e.pauseStart = now
			} else {
				e.lastPauseEnd = now
			}
			e.countdownSent = false
		case e.ShowCountdown && !e.countdownSent && left <= countdownWindow:
			events = append(events, Event{Kind: Countdown, Reminder: e.Reminder, Remaining: left})
			e.countdownSent = true
		}
	}
	return events
}
