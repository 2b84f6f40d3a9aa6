package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/cli"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether tracking is running and the current totals",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	ws, err := workspace(ctx)
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	c := s.tr.Counters(ws)
	d := cfg.Display

	fmt.Println()
	fmt.Println(cli.RenderTitle("WORKTIME"))
	fmt.Println()

	if cur := s.tr.Current(); cur != nil {
		fmt.Printf("  %s %s  %s  %s\n",
			cli.Running("● Tracking"),
			cli.Label(cur.Labels.String()),
			cli.Value(cli.FormatDuration(c.Elapsed)),
			cli.Muted("since "+time.UnixMilli(cur.Start).Local().Format("15:04")))
	} else {
		fmt.Printf("  %s\n", cli.Warn("■ Not tracking"))
	}
	fmt.Println()

	rows := [][]string{}
	if d.ShowTodayTime {
		rows = append(rows, []string{"Today", cli.FormatDuration(c.Today)})
	}
	if d.ShowWorkspaceTime {
		rows = append(rows, []string{"Workspace " + ws, cli.FormatDuration(c.Workspace)})
	}
	if d.ShowTotalTime {
		rows = append(rows, []string{fmt.Sprintf("Total %d", s.tr.Year()), cli.FormatDuration(c.Total)})
	}
	if len(rows) > 0 {
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Counter", "Time"},
			Rows:    rows,
		}))
	}

	loc := s.st.Location(s.tr.Year())
	saved := "never saved"
	if fi, err := os.Stat(loc); err == nil {
		saved = "saved " + humanize.Time(fi.ModTime())
	}
	fmt.Printf("  %s %s\n", cli.Muted("Data:"), loc)
	fmt.Printf("  %s %s\n", cli.Muted("     "), cli.Muted(saved))

	if pid, ok := runningDaemon(); ok {
		fmt.Printf("  %s running (pid %d)\n", cli.Muted("Daemon:"), pid)
	}
	fmt.Println()
	return nil
}
