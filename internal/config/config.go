package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/worktime/internal/aggregate"
	"github.com/theirongolddev/worktime/internal/reminder"
)

// DataDirEnv overrides the configured data directory.
const DataDirEnv = "WORKTIME_DATA_DIR"

// Config holds all worktime configuration.
type Config struct {
	General   GeneralConfig       `toml:"general"`
	Display   DisplayConfig       `toml:"display"`
	Daemon    DaemonConfig        `toml:"daemon"`
	Reminders []reminder.Reminder `toml:"reminders"`
}

// GeneralConfig holds storage and workspace settings.
type GeneralConfig struct {
	DataDir          string `toml:"data_dir,omitempty"`
	Backend          string `toml:"backend"`
	DefaultWorkspace string `toml:"default_workspace,omitempty"`
	IncludeBranch    bool   `toml:"include_branch"`
	SaveIntervalSec  int    `toml:"save_interval_sec"`
	LogLevel         string `toml:"log_level"`
}

// DisplayConfig selects which counters the status line shows.
type DisplayConfig struct {
	ShowTotalTime     bool   `toml:"show_total_time"`
	ShowWorkspaceTime bool   `toml:"show_workspace_time"`
	ShowTodayTime     bool   `toml:"show_today_time"`
	ShowFromStartTime bool   `toml:"show_from_start_time"`
	ShowNextReminder  bool   `toml:"show_next_reminder"`
	WeekStart         string `toml:"week_start"`
	Theme             string `toml:"theme"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr            string `toml:"addr"`
	PollIntervalSec int    `toml:"poll_interval_sec"`
	EventsBuffer    int    `toml:"events_buffer"`
	Notifications   bool   `toml:"notifications"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Backend:         "json",
			SaveIntervalSec: 300,
			LogLevel:        "warn",
		},
		Display: DisplayConfig{
			ShowTotalTime:     true,
			ShowWorkspaceTime: true,
			ShowTodayTime:     true,
			ShowFromStartTime: true,
			ShowNextReminder:  true,
			WeekStart:         "monday",
			Theme:             "flexoki-dark",
		},
		Daemon: DaemonConfig{
			Addr:            "127.0.0.1:8787",
			PollIntervalSec: 5,
			EventsBuffer:    200,
			Notifications:   true,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "worktime")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "worktime")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultDataDir returns the XDG data directory for interval files.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "worktime")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "worktime")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail much later.
func (c Config) Validate() error {
	switch strings.ToLower(c.General.Backend) {
	case "", "json", "sqlite":
	default:
		return fmt.Errorf("config: unknown backend %q (want json or sqlite)", c.General.Backend)
	}
	if c.Display.WeekStart != "" {
		if _, err := aggregate.ParseWeekday(c.Display.WeekStart); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	for _, r := range c.Reminders {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// DataDir returns the data directory from env var, config or the default,
// in that order.
func DataDir(cfg Config) string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir
	}
	if cfg.General.DataDir != "" {
		return expandHome(cfg.General.DataDir)
	}
	return DefaultDataDir()
}

// WeekStart returns the configured first day of the week, Monday by default.
func WeekStart(cfg Config) time.Weekday {
	d, err := aggregate.ParseWeekday(cfg.Display.WeekStart)
	if err != nil {
		return time.Monday
	}
	return d
}

// SaveInterval returns how often the daemon flushes pending intervals.
func SaveInterval(cfg Config) time.Duration {
	if cfg.General.SaveIntervalSec <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(cfg.General.SaveIntervalSec) * time.Second
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
