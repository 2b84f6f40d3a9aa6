package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/worktime/internal/reminder"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.General.Backend != "json" {
		t.Fatalf("Backend = %q, want json", cfg.General.Backend)
	}
	if WeekStart(cfg) != time.Monday {
		t.Fatalf("WeekStart = %v, want Monday", WeekStart(cfg))
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.General.Backend = "sqlite"
	cfg.General.IncludeBranch = true
	cfg.Display.WeekStart = "sunday"
	cfg.Reminders = []reminder.Reminder{{Title: "stretch", IntervalMinutes: 50, PauseMinutes: 5, AutoPause: true}}

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("mode = %o, want 600", perm)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.General.Backend != "sqlite" || !got.General.IncludeBranch {
		t.Fatalf("General = %+v", got.General)
	}
	if WeekStart(got) != time.Sunday {
		t.Fatalf("WeekStart = %v, want Sunday", WeekStart(got))
	}
	if len(got.Reminders) != 1 || got.Reminders[0] != cfg.Reminders[0] {
		t.Fatalf("Reminders = %+v", got.Reminders)
	}
}

func TestLoadFrom_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"backend":  "[general]\nbackend = \"csv\"\n",
		"weekday":  "[display]\nweek_start = \"someday\"\n",
		"reminder": "[[reminders]]\ntitle = \"x\"\ninterval_minutes = 0\n",
		"syntax":   "[general\n",
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), name+".toml")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFrom(path); err == nil {
			t.Errorf("%s: LoadFrom succeeded, want error", name)
		}
	}
}

func TestDataDirPrecedence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.DataDir = "/from/config"

	t.Setenv(DataDirEnv, "/from/env")
	if got := DataDir(cfg); got != "/from/env" {
		t.Fatalf("DataDir = %q, want env value", got)
	}

	t.Setenv(DataDirEnv, "")
	if got := DataDir(cfg); got != "/from/config" {
		t.Fatalf("DataDir = %q, want config value", got)
	}

	t.Setenv("XDG_DATA_HOME", "/xdg")
	if got := DataDir(DefaultConfig()); got != filepath.Join("/xdg", "worktime") {
		t.Fatalf("DataDir = %q, want XDG default", got)
	}
}

func TestSaveInterval(t *testing.T) {
	cfg := DefaultConfig()
	if got := SaveInterval(cfg); got != 5*time.Minute {
		t.Fatalf("SaveInterval = %v, want 5m", got)
	}
	cfg.General.SaveIntervalSec = 0
	if got := SaveInterval(cfg); got != 5*time.Minute {
		t.Fatalf("SaveInterval(0) = %v, want 5m", got)
	}
}
