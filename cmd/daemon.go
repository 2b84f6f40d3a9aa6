package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/cli"
	"github.com/theirongolddev/worktime/internal/config"
	"github.com/theirongolddev/worktime/internal/daemon"
	"github.com/theirongolddev/worktime/internal/interval"
	"github.com/theirongolddev/worktime/internal/logging"
	"github.com/theirongolddev/worktime/internal/reminder"
)

type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DataDir   string    `json:"data_dir"`
	Workspace string    `json:"workspace"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonEventsBuffer int
	flagDaemonStart        bool
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background tracker with reminders and an HTTP/SSE API",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", "", "PID file path (default: worktimed.pid in the data directory)")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonStart, "start", false, "Start tracking the workspace when the daemon starts")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func daemonPIDFile() string {
	if flagDaemonPIDFile != "" {
		return flagDaemonPIDFile
	}
	return filepath.Join(dataDir(), "worktimed.pid")
}

func daemonLogFile() string {
	if flagLogFile != "" {
		return flagLogFile
	}
	return filepath.Join(dataDir(), "worktimed.log")
}

func daemonAddr() string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	return cfg.Daemon.Addr
}

func daemonInterval() time.Duration {
	if flagDaemonInterval > 0 {
		return flagDaemonInterval
	}
	return time.Duration(cfg.Daemon.PollIntervalSec) * time.Second
}

func daemonEventsBuffer() int {
	if flagDaemonEventsBuffer > 0 {
		return flagDaemonEventsBuffer
	}
	return cfg.Daemon.EventsBuffer
}

// runningDaemon reports the pid of a live daemon for the current data
// directory.
func runningDaemon() (int, bool) {
	pid, err := readPID(daemonPIDFile())
	if err != nil || !processAlive(pid) {
		return 0, false
	}
	return pid, true
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}

	if flagDaemonDetach {
		return startDaemonDetached()
	}

	return runDaemonForeground()
}

func startDaemonDetached() error {
	pidFile := daemonPIDFile()
	if err := ensureDaemonNotRunning(pidFile); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := filterDetachArg(os.Args[1:])
	args = append(args, "--child")

	logFile := daemonLogFile()
	if err := os.MkdirAll(filepath.Dir(pidFile), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	cmd := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	cmd.Stdout = logf
	cmd.Stderr = logf
	cmd.Stdin = nil
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", cmd.Process.Pid)
	fmt.Printf("  PID file: %s\n", pidFile)
	fmt.Printf("  API: http://%s/v1/status\n", daemonAddr())
	fmt.Printf("  Log: %s\n", logFile)
	return nil
}

func runDaemonForeground() error {
	pidFile := daemonPIDFile()
	if err := ensureDaemonNotRunning(pidFile); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(pidFile), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ws, err := workspace(ctx)
	if err != nil {
		return err
	}
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if flagDaemonStart {
		if err := s.tr.Start(ctx, interval.NewLabels(ws)); err != nil {
			return err
		}
	}

	pid := os.Getpid()
	if err := writePID(pidFile, pid); err != nil {
		return err
	}
	defer func() { _ = os.Remove(pidFile) }()

	state := daemonRuntimeState{
		PID:       pid,
		Addr:      daemonAddr(),
		StartedAt: time.Now(),
		DataDir:   dataDir(),
		Workspace: ws,
	}
	_ = writeState(statePath(pidFile), state)
	defer func() { _ = os.Remove(statePath(pidFile)) }()

	var notifier reminder.Notifier
	if cfg.Daemon.Notifications {
		notifier = reminder.NewBeeepNotifier("worktime", false)
	}
	svc := daemon.New(daemon.Config{
		DataDir:      dataDir(),
		Workspace:    ws,
		Interval:     daemonInterval(),
		SaveInterval: config.SaveInterval(cfg),
		Addr:         daemonAddr(),
		EventsBuffer: daemonEventsBuffer(),
		Reminders:    cfg.Reminders,
		Notifier:     notifier,
		Watch:        true,
		Log:          logging.For("daemon"),
	}, s.tr)

	fmt.Printf("  worktime daemon listening on http://%s\n", daemonAddr())
	fmt.Printf("  Workspace %s, data in %s\n", ws, dataDir())
	fmt.Printf("  Stop with: worktime daemon stop --pid-file %s\n", pidFile)

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	pidFile := daemonPIDFile()
	pid, err := readPID(pidFile)
	if err != nil {
		fmt.Printf("  Daemon: not running (pid file not found)\n")
		return nil
	}

	if !processAlive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := daemonAddr()
	if st, err := readState(statePath(pidFile)); err == nil && st.Addr != "" {
		addr = st.Addr
	}

	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status check
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("  API status: unreadable response (%v)\n", err)
		return nil
	}
	var st daemon.Status
	if err := sonic.Unmarshal(body, &st); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	sum := st.Summary
	if sum.Running {
		fmt.Printf("  Tracking: %s for %s\n", sum.Workspace, cli.FormatDuration(sum.ElapsedMs))
	} else {
		fmt.Printf("  Tracking: stopped\n")
	}
	fmt.Printf("  Today: %s\n", cli.FormatDuration(sum.TodayMs))
	fmt.Printf("  Total: %s\n", cli.FormatDuration(sum.TotalMs))
	if sum.InPause != "" {
		fmt.Printf("  On break: %s\n", sum.InPause)
	} else if sum.NextReminder != "" {
		fmt.Printf("  Next reminder: %s in %s\n", sum.NextReminder,
			cli.FormatCountdown(time.Duration(sum.NextReminderIn)*time.Second))
	}
	if st.LastSaveAt.IsZero() {
		fmt.Printf("  Last save: pending (%d unsaved)\n", sum.Pending)
	} else {
		fmt.Printf("  Last save: %s\n", st.LastSaveAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Poll count: %d\n", st.PollCount)
	fmt.Printf("  Stream subscribers: %d\n", st.SubscriberCount)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pidFile := daemonPIDFile()
	pid, err := readPID(pidFile)
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			_ = os.Remove(pidFile)
			_ = os.Remove(statePath(pidFile))
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}

	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func ensureDaemonNotRunning(pidFile string) error {
	pid, err := readPID(pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if processAlive(pid) {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	_ = os.Remove(pidFile)
	_ = os.Remove(statePath(pidFile))
	return nil
}

func writePID(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

func readPID(path string) (int, error) {
	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", path)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func statePath(pidFile string) string {
	return pidFile + ".json"
}

func writeState(path string, st daemonRuntimeState) error {
	data, err := sonic.ConfigStd.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readState(path string) (daemonRuntimeState, error) {
	var st daemonRuntimeState
	//nolint:gosec // daemon state path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return st, err
	}
	if err := sonic.Unmarshal(data, &st); err != nil {
		return st, err
	}
	return st, nil
}
