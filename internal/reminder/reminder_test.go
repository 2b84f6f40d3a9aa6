package reminder

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func TestSchedule_NextPicksSoonest(t *testing.T) {
	s := NewSchedule([]Reminder{
		{Title: "eyes", IntervalMinutes: 20},
		{Title: "stretch", IntervalMinutes: 50},
	}, t0)

	r, left, ok := s.Next(t0.Add(5 * time.Minute))
	if !ok || r.Title != "eyes" {
		t.Fatalf("Next = %q, %v; want eyes", r.Title, ok)
	}
	if left != 15*time.Minute {
		t.Fatalf("left = %v, want 15m", left)
	}

	if _, _, ok := NewSchedule(nil, t0).Next(t0); ok {
		t.Fatal("empty schedule should report no reminder")
	}
}

func TestSchedule_AutoPauseCycle(t *testing.T) {
	s := NewSchedule([]Reminder{{
		Title: "break", IntervalMinutes: 60, PauseMinutes: 5,
		AutoPause: true, AutoStartAfterPause: true, ShowCountdown: true,
	}}, t0)

	if ev := s.Tick(t0.Add(30 * time.Minute)); len(ev) != 0 {
		t.Fatalf("early tick = %v, want none", ev)
	}

	ev := s.Tick(t0.Add(59 * time.Minute))
	if len(ev) != 1 || ev[0].Kind != Countdown || ev[0].Remaining != time.Minute {
		t.Fatalf("countdown tick = %+v", ev)
	}
	if ev := s.Tick(t0.Add(59*time.Minute + 30*time.Second)); len(ev) != 0 {
		t.Fatalf("countdown fired twice: %+v", ev)
	}

	ev = s.Tick(t0.Add(60 * time.Minute))
	if len(ev) != 1 || ev[0].Kind != BreakDue {
		t.Fatalf("due tick = %+v", ev)
	}
	if r, ok := s.InPause(); !ok || r.Title != "break" {
		t.Fatal("reminder should be in pause")
	}
	if _, _, ok := s.Next(t0.Add(61 * time.Minute)); ok {
		t.Fatal("Next should be empty during a pause")
	}

	ev = s.Tick(t0.Add(65 * time.Minute))
	if len(ev) != 1 || ev[0].Kind != BreakOver {
		t.Fatalf("pause end tick = %+v", ev)
	}
	if ev[0].Message() != "END break" {
		t.Fatalf("Message = %q", ev[0].Message())
	}

	_, left, ok := s.Next(t0.Add(65 * time.Minute))
	if !ok || left != 60*time.Minute {
		t.Fatalf("after pause left = %v, %v; want 60m", left, ok)
	}
}

func TestSchedule_WithoutAutoPauseRearms(t *testing.T) {
	s := NewSchedule([]Reminder{{Title: "water", IntervalMinutes: 30}}, t0)
	ev := s.Tick(t0.Add(31 * time.Minute))
	if len(ev) != 1 || ev[0].Kind != BreakDue {
		t.Fatalf("tick = %+v", ev)
	}
	if _, ok := s.InPause(); ok {
		t.Fatal("reminder without auto pause must not pause")
	}
	_, left, _ := s.Next(t0.Add(31 * time.Minute))
	if left != 30*time.Minute {
		t.Fatalf("left = %v, want 30m", left)
	}
}

func TestSchedule_StoppedFreezesDeadlines(t *testing.T) {
	s := NewSchedule([]Reminder{{Title: "eyes", IntervalMinutes: 20}}, t0)

	s.Stopped(t0.Add(10 * time.Minute))
	if ev := s.Tick(t0.Add(45 * time.Minute)); ev != nil {
		t.Fatalf("tick while stopped = %+v", ev)
	}
	if _, left, _ := s.Next(t0.Add(45 * time.Minute)); left != 10*time.Minute {
		t.Fatalf("left while stopped = %v, want 10m", left)
	}

	s.Resumed(t0.Add(40 * time.Minute))
	if _, left, _ := s.Next(t0.Add(40 * time.Minute)); left != 10*time.Minute {
		t.Fatalf("left after resume = %v, want 10m", left)
	}
}

func TestSchedule_ManualPause(t *testing.T) {
	s := NewSchedule([]Reminder{{Title: "walk", IntervalMinutes: 90, PauseMinutes: 10}}, t0)
	if !s.StartPause("walk", t0.Add(time.Hour)) {
		t.Fatal("StartPause(walk) = false")
	}
	if s.StartPause("nope", t0) {
		t.Fatal("StartPause(nope) = true")
	}
	if !s.EndPause("walk", t0.Add(70*time.Minute)) {
		t.Fatal("EndPause(walk) = false")
	}
	if _, left, _ := s.Next(t0.Add(70 * time.Minute)); left != 90*time.Minute {
		t.Fatalf("left = %v, want 90m", left)
	}
}

func TestReminder_Validate(t *testing.T) {
	if err := (Reminder{Title: "x", IntervalMinutes: 1}).Validate(); err != nil {
		t.Fatalf("Validate = %v", err)
	}
	for _, r := range []Reminder{{IntervalMinutes: 1}, {Title: "x"}, {Title: "x", IntervalMinutes: 1, PauseMinutes: -1}} {
		if r.Validate() == nil {
			t.Fatalf("Validate(%+v) = nil, want error", r)
		}
	}
}

type recorder struct {
	got []string
	err error
}

func (r *recorder) Notify(title, message string) error {
	r.got = append(r.got, title+": "+message)
	return r.err
}

func TestDeliver(t *testing.T) {
	rec := &recorder{err: errors.New("no display")}
	events := []Event{
		{Kind: Countdown, Reminder: Reminder{Title: "eyes"}, Remaining: 90 * time.Second},
		{Kind: BreakDue, Reminder: Reminder{Title: "walk", PauseMinutes: 10}},
	}
	if err := Deliver(rec, events); err == nil {
		t.Fatal("Deliver should return the notifier error")
	}
	want := []string{"eyes: eyes in 1m30s", "walk: START walk (10m)"}
	if len(rec.got) != len(want) {
		t.Fatalf("delivered %v, want %v", rec.got, want)
	}
	for i := range want {
		if rec.got[i] != want[i] {
			t.Errorf("delivered[%d] = %q, want %q", i, rec.got[i], want[i])
		}
	}
}
