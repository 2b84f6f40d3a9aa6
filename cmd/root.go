// Package cmd implements the worktime CLI commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/aggregate"
	"github.com/theirongolddev/worktime/internal/config"
	"github.com/theirongolddev/worktime/internal/interval"
	"github.com/theirongolddev/worktime/internal/logging"
	"github.com/theirongolddev/worktime/internal/store"
	"github.com/theirongolddev/worktime/internal/tracker"
	"github.com/theirongolddev/worktime/internal/vcs"
)

var (
	flagDataDir   string
	flagBackend   string
	flagWorkspace string
	flagQuiet     bool
	flagLogLevel  string
	flagLogFile   string
)

var (
	cfg       config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "worktime",
	Short: "Per-workspace time tracking",
	Long: "Track the time you spend in each workspace. Overlapping sessions are\n" +
		"consolidated into one timeline and summarized per day, week and month.",
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
	RunE:               runStatus,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Directory holding the interval files (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend: json or sqlite (default from config)")
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", "", "Workspace label (default: git repository or directory name)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress notices")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file instead of stderr")
}

// setup loads the config and configures logging for every command.
func setup(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		notice("Config unreadable, using defaults (%v)", err)
		loaded = config.DefaultConfig()
	}
	cfg = loaded

	level := cfg.General.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if level == "" {
		level = "warn"
	}
	closer, err := logging.Init(level, flagLogFile)
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if logCloser != nil {
		return logCloser.Close()
	}
	return nil
}

// notice prints a one-line message to stderr when a person is watching.
func notice(format string, args ...any) {
	if flagQuiet || !isatty.IsTerminal(os.Stderr.Fd()) {
		return
	}
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}

func dataDir() string {
	if flagDataDir != "" {
		return flagDataDir
	}
	return config.DataDir(cfg)
}

func backend() string {
	if flagBackend != "" {
		return flagBackend
	}
	return cfg.General.Backend
}

func calendar() aggregate.Calendar {
	return aggregate.LocalCalendar(config.WeekStart(cfg))
}

func openStore() (store.Store, error) {
	st, err := store.Open(store.Options{
		Backend: backend(),
		Dir:     dataDir(),
		Log:     logging.For("store"),
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

// session bundles an opened store and the tracker over it.
type session struct {
	st store.Store
	tr *tracker.Tracker
}

func (s *session) Close() error {
	return s.st.Close()
}

// save flushes pending intervals. One-shot commands call it before exiting.
func (s *session) save(ctx context.Context) error {
	if err := s.tr.Flush(ctx); err != nil {
		return fmt.Errorf("saving: %w", err)
	}
	return nil
}

// openSession opens the store and tracker, which consolidates and saves the
// current year's history.
func openSession(ctx context.Context) (*session, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	tr, err := tracker.Open(ctx, st, tracker.Options{Log: logging.For("tracker")})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("opening tracker: %w", err)
	}
	return &session{st: st, tr: tr}, nil
}

// workspace picks the label to track: the --workspace flag, the configured
// default outside a git repository, then the repository (or directory) name.
func workspace(ctx context.Context) (string, error) {
	if ws := strings.TrimSpace(flagWorkspace); ws != "" {
		return ws, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving workspace: %w", err)
	}
	if cfg.General.DefaultWorkspace != "" && vcs.Root(ctx, wd) == "" {
		return cfg.General.DefaultWorkspace, nil
	}
	return vcs.Workspace(ctx, wd, cfg.General.IncludeBranch), nil
}

// labelsFor uses the command arguments as labels, falling back to the
// detected workspace.
func labelsFor(ctx context.Context, args []string) (interval.Labels, error) {
	if labels := interval.NewLabels(args...); len(labels) > 0 {
		return labels, nil
	}
	ws, err := workspace(ctx)
	if err != nil {
		return nil, err
	}
	return interval.NewLabels(ws), nil
}
