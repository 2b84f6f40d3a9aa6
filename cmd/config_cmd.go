package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting, e.g. general.backend sqlite",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	g := cfg.General
	fmt.Println("  [General]")
	fmt.Printf("    Data directory:    %s\n", dataDir())
	fmt.Printf("    Backend:           %s\n", backend())
	if g.DefaultWorkspace != "" {
		fmt.Printf("    Default workspace: %s\n", g.DefaultWorkspace)
	}
	fmt.Printf("    Include branch:    %v\n", g.IncludeBranch)
	fmt.Printf("    Save interval:     %s\n", config.SaveInterval(cfg))
	fmt.Printf("    Log level:         %s\n", g.LogLevel)
	fmt.Println()

	d := cfg.Display
	fmt.Println("  [Display]")
	fmt.Printf("    Total time:      %v\n", d.ShowTotalTime)
	fmt.Printf("    Workspace time:  %v\n", d.ShowWorkspaceTime)
	fmt.Printf("    Today time:      %v\n", d.ShowTodayTime)
	fmt.Printf("    From start time: %v\n", d.ShowFromStartTime)
	fmt.Printf("    Next reminder:   %v\n", d.ShowNextReminder)
	fmt.Printf("    Week starts:     %s\n", config.WeekStart(cfg))
	fmt.Printf("    Theme:           %s\n", d.Theme)
	fmt.Println()

	dm := cfg.Daemon
	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       %s\n", dm.Addr)
	fmt.Printf("    Poll interval: %ds\n", dm.PollIntervalSec)
	fmt.Printf("    Events buffer: %d\n", dm.EventsBuffer)
	fmt.Printf("    Notifications: %v\n", dm.Notifications)
	fmt.Println()

	fmt.Println("  [Reminders]")
	if len(cfg.Reminders) == 0 {
		fmt.Println("    none")
	}
	for _, r := range cfg.Reminders {
		fmt.Printf("    %-20s every %dm, pause %dm\n", r.Title, r.IntervalMinutes, r.PauseMinutes)
	}
	fmt.Println()

	fmt.Println("  Run `worktime setup` to reconfigure.")
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	next := cfg
	if err := setConfigValue(&next, args[0], args[1]); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if err := config.Save(next); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	cfg = next
	fmt.Printf("  %s = %s\n", args[0], args[1])
	return nil
}

// setConfigValue assigns value to the setting named by a section.key path.
func setConfigValue(c *config.Config, key, value string) error {
	str := func(dst *string) error { *dst = value; return nil }
	boolean := func(dst *bool) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: want true or false, got %q", key, value)
		}
		*dst = b
		return nil
	}
	integer := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s: want a non-negative number, got %q", key, value)
		}
		*dst = n
		return nil
	}

	switch strings.ToLower(key) {
	case "general.data_dir":
		return str(&c.General.DataDir)
	case "general.backend":
		return str(&c.General.Backend)
	case "general.default_workspace":
		return str(&c.General.DefaultWorkspace)
	case "general.include_branch":
		return boolean(&c.General.IncludeBranch)
	case "general.save_interval_sec":
		return integer(&c.General.SaveIntervalSec)
	case "general.log_level":
		return str(&c.General.LogLevel)
	case "display.show_total_time":
		return boolean(&c.Display.ShowTotalTime)
	case "display.show_workspace_time":
		return boolean(&c.Display.ShowWorkspaceTime)
	case "display.show_today_time":
		return boolean(&c.Display.ShowTodayTime)
	case "display.show_from_start_time":
		return boolean(&c.Display.ShowFromStartTime)
	case "display.show_next_reminder":
		return boolean(&c.Display.ShowNextReminder)
	case "display.week_start":
		return str(&c.Display.WeekStart)
	case "display.theme":
		return str(&c.Display.Theme)
	case "daemon.addr":
		return str(&c.Daemon.Addr)
	case "daemon.poll_interval_sec":
		return integer(&c.Daemon.PollIntervalSec)
	case "daemon.events_buffer":
		return integer(&c.Daemon.EventsBuffer)
	case "daemon.notifications":
		return boolean(&c.Daemon.Notifications)
	}
	return fmt.Errorf("unknown setting %q", key)
}
