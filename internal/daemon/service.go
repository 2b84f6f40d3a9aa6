// Package daemon provides the long-running tracking service: periodic saves,
// break reminders and an HTTP/SSE status API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/worktime/internal/logging"
	"github.com/theirongolddev/worktime/internal/reminder"
	"github.com/theirongolddev/worktime/internal/store"
	"github.com/theirongolddev/worktime/internal/tracker"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir      string
	Workspace    string
	Interval     time.Duration
	SaveInterval time.Duration
	Addr         string
	EventsBuffer int
	Reminders    []reminder.Reminder
	// Notifier receives reminder events; nil disables notifications.
	Notifier reminder.Notifier
	// Watch reloads the tracker when the data directory changes.
	Watch bool
	Log   *logrus.Entry
}

// Snapshot is a compact tracking state for status/event payloads.
type Snapshot struct {
	At             time.Time `json:"at"`
	Running        bool      `json:"running"`
	Workspace      string    `json:"workspace,omitempty"`
	ElapsedMs      int64     `json:"elapsed_ms"`
	TotalMs        int64     `json:"total_ms"`
	TodayMs        int64     `json:"today_ms"`
	WorkspaceMs    int64     `json:"workspace_ms"`
	FromStartMs    int64     `json:"from_start_ms"`
	Pending        int       `json:"pending"`
	NextReminder   string    `json:"next_reminder,omitempty"`
	NextReminderIn int64     `json:"next_reminder_in_sec,omitempty"`
	InPause        string    `json:"in_pause,omitempty"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	TotalMs          int64 `json:"total_ms"`
	TodayMs          int64 `json:"today_ms"`
	WorkspaceMs      int64 `json:"workspace_ms"`
	RunningChanged   bool  `json:"running_changed,omitempty"`
	WorkspaceChanged bool  `json:"workspace_changed,omitempty"`
}

func (d Delta) isZero() bool {
	return d.TotalMs == 0 &&
		d.TodayMs == 0 &&
		d.WorkspaceMs == 0 &&
		!d.RunningChanged &&
		!d.WorkspaceChanged
}

// Event is emitted whenever the tracking snapshot updates.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
	Message   string    `json:"message,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	LastSaveAt      time.Time `json:"last_save_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	SaveIntervalSec int       `json:"save_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DataDir         string    `json:"data_dir"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	tracker *tracker.Tracker
	log     *logrus.Entry
	now     func() time.Time

	// schedule is only touched from the Run loop.
	schedule *reminder.Schedule

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	lastSaveAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service driving tr.
func New(cfg Config, tr *tracker.Tracker) *Service {
	if cfg.Interval < time.Second {
		cfg.Interval = 5 * time.Second
	}
	if cfg.SaveInterval < cfg.Interval {
		cfg.SaveInterval = 5 * time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	log := cfg.Log
	if log == nil {
		log = logging.For("daemon")
	}

	now := time.Now()
	return &Service{
		cfg:       cfg,
		tracker:   tr,
		log:       log,
		now:       time.Now,
		schedule:  reminder.NewSchedule(cfg.Reminders, now),
		startedAt: now,
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints, polling, saving and watching until ctx is
// canceled. Pending intervals are flushed before it returns.
func (s *Service) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var changes <-chan struct{}
	if s.cfg.Watch {
		w, err := s.watch(ctx)
		if err != nil {
			s.log.WithError(err).Warn("watching data directory disabled")
		} else {
			changes = w
		}
	}

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	saver := time.NewTicker(s.cfg.SaveInterval)
	defer saver.Stop()

	for {
		select {
		case <-ctx.Done():
			s.saveOnce(context.Background())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce()
		case <-saver.C:
			s.saveOnce(ctx)
		case <-changes:
			if err := s.tracker.Reload(ctx); err != nil {
				s.recordError(err)
				continue
			}
			s.pollOnce()
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// watch reports debounced changes to interval files in the data directory.
func (s *Service) watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(s.cfg.DataDir); err != nil {
		_ = w.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer func() { _ = w.Close() }()
		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !isDataFile(ev.Name) || ev.Op == fsnotify.Chmod {
					continue
				}
				debounce = time.After(250 * time.Millisecond)
			case <-debounce:
				debounce = nil
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.WithError(err).Warn("watch error")
			}
		}
	}()
	return out, nil
}

func isDataFile(path string) bool {
	name := filepath.Base(path)
	if name == store.LockFile || strings.Contains(name, ".tmp-") || strings.Contains(name, ".corrupt-") {
		return false
	}
	return strings.HasPrefix(name, ".time-tracker-") || strings.HasPrefix(name, store.SQLiteFile)
}

func (s *Service) pollOnce() {
	now := s.now()
	c := s.tracker.Counters(s.cfg.Workspace)

	if c.Running {
		s.schedule.Resumed(now)
	} else {
		s.schedule.Stopped(now)
	}
	fired := s.schedule.Tick(now)
	snap := s.snapshotFrom(c, now)

	var evs []Event

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		evs = append(evs, Event{ID: s.nextEventID, Type: "snapshot", Timestamp: now, Snapshot: snap})
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		evs = append(evs, Event{ID: s.nextEventID, Type: "tracking_delta", Timestamp: now, Snapshot: snap, Delta: delta})
	}
	for _, r := range fired {
		s.nextEventID++
		evs = append(evs, Event{ID: s.nextEventID, Type: "reminder", Timestamp: now, Snapshot: snap, Message: r.Message()})
	}
	s.mu.Unlock()

	for _, ev := range evs {
		s.publishEvent(ev)
	}

	if len(fired) > 0 && s.cfg.Notifier != nil {
		if err := reminder.Deliver(s.cfg.Notifier, fired); err != nil {
			s.log.WithError(err).Warn("reminder notification failed")
		}
	}
}

func (s *Service) saveOnce(ctx context.Context) {
	if err := s.tracker.Flush(ctx); err != nil {
		s.recordError(err)
		return
	}
	s.mu.Lock()
	s.lastSaveAt = s.now()
	s.mu.Unlock()
}

func (s *Service) recordError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
	s.log.WithError(err).Error("daemon cycle failed")
}

func (s *Service) snapshotFrom(c tracker.Counters, at time.Time) Snapshot {
	snap := Snapshot{
		At:          at,
		Running:     c.Running,
		Workspace:   c.Labels.String(),
		ElapsedMs:   c.Elapsed,
		TotalMs:     c.Total,
		TodayMs:     c.Today,
		WorkspaceMs: c.Workspace,
		FromStartMs: c.FromStart,
		Pending:     s.tracker.Pending(),
	}
	if r, ok := s.schedule.InPause(); ok {
		snap.InPause = r.Title
	} else if r, left, ok := s.schedule.Next(at); ok {
		snap.NextReminder = r.Title
		snap.NextReminderIn = int64(left.Seconds())
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		TotalMs:          curr.TotalMs - prev.TotalMs,
		TodayMs:          curr.TodayMs - prev.TodayMs,
		WorkspaceMs:      curr.WorkspaceMs - prev.WorkspaceMs,
		RunningChanged:   curr.Running != prev.Running,
		WorkspaceChanged: curr.Workspace != prev.Workspace,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		LastSaveAt:      s.lastSaveAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		SaveIntervalSec: int(s.cfg.SaveInterval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, events)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(append(data, '\n'))
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
