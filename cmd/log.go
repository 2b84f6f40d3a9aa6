package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/cli"
	"github.com/theirongolddev/worktime/internal/interval"
	"github.com/theirongolddev/worktime/internal/report"
)

var (
	flagLogAllYears bool
	flagLogDays     int
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Summary and per-day breakdown of tracked time",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

func init() {
	logCmd.Flags().BoolVar(&flagLogAllYears, "all-years", false, "Also list previous years")
	logCmd.Flags().IntVarP(&flagLogDays, "days", "n", 31, "Days to list per year (0 for all)")
	rootCmd.AddCommand(logCmd)
}

func runLog(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	years := []int{s.tr.Year()}
	if flagLogAllYears {
		stored, err := s.st.Years(ctx)
		if err != nil {
			return fmt.Errorf("listing years: %w", err)
		}
		for _, y := range stored {
			if y != s.tr.Year() {
				years = append(years, y)
			}
		}
	}

	now := time.Now()
	cal := calendar()
	for i, year := range years {
		ivs, err := s.tr.History(ctx, year)
		if err != nil {
			return fmt.Errorf("loading %d: %w", year, err)
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("WORKTIME  %d", year)))
		fmt.Println()

		if len(ivs) == 0 {
			fmt.Println("  No tracked time.")
			continue
		}
		if i == 0 {
			printSummary(report.Summarize(ivs, now, cal))
		} else {
			fmt.Print(cli.RenderTable(cli.Table{
				Headers: []string{"Year", "Time", "Hours"},
				Rows: [][]string{{
					fmt.Sprint(year),
					cli.FormatDuration(interval.TotalDuration(ivs)),
					cli.FormatHours(interval.TotalDuration(ivs)),
				}},
			}))
		}
		printDays(report.Daily(ivs, cal), flagLogDays)
	}
	fmt.Println()
	return nil
}

func printSummary(s report.Summary) {
	rows := [][]string{
		{"Today", cli.FormatDuration(s.Today)},
		{"Yesterday", cli.FormatDuration(s.Yesterday)},
		{"This week", cli.FormatDuration(s.ThisWeek)},
		{"Last 7 days", cli.FormatDuration(s.Last7Days)},
		{"Last week", cli.FormatDuration(s.LastWeek)},
		{"This month", cli.FormatDuration(s.ThisMonth)},
		{"Last month", cli.FormatDuration(s.LastMonth)},
		{"Total", cli.FormatDuration(s.Total)},
		{fmt.Sprintf("Average (%d days)", s.ActiveDays), cli.FormatDuration(s.AveragePerDay)},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Summary",
		Headers: []string{"Range", "Time"},
		Rows:    rows,
	}))
}

func printDays(days []report.Day, limit int) {
	if limit > 0 && len(days) > limit {
		days = days[:limit]
	}
	var rows [][]string
	for i, d := range days {
		if i > 0 {
			rows = append(rows, []string{"---"})
		}
		rows = append(rows, []string{cli.FormatDay(d.Date), cli.FormatDuration(d.Total)})
		if len(d.Workspaces) == 1 && d.Workspaces[0].Duration == d.Total {
			rows[len(rows)-1][0] += "  " + d.Workspaces[0].Workspace
			continue
		}
		for _, ws := range d.Workspaces {
			rows = append(rows, []string{"  " + ws.Workspace, cli.FormatDuration(ws.Duration)})
		}
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Days",
		Headers: []string{"Day", "Time"},
		Rows:    rows,
	}))
}
