package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/aggregate"
	"github.com/theirongolddev/worktime/internal/cli"
	"github.com/theirongolddev/worktime/internal/interval"
	"github.com/theirongolddev/worktime/internal/report"
	"github.com/theirongolddev/worktime/internal/store"
)

var (
	flagReportUnit  string
	flagReportLabel string
	flagReportDays  int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Tracked time per day, week or month",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&flagReportUnit, "unit", "u", "day", "Bucket size: day, week or month")
	reportCmd.Flags().StringVarP(&flagReportLabel, "label", "l", "", "Only count intervals carrying this workspace label")
	reportCmd.Flags().IntVarP(&flagReportDays, "days", "n", 14, "Days to cover, rounded up to whole buckets")
	rootCmd.AddCommand(reportCmd)
}

// bucketCount converts a day span to a number of unit buckets.
func bucketCount(unit aggregate.Unit, days int) int {
	switch unit {
	case aggregate.Week:
		return (days + 6) / 7
	case aggregate.Month:
		return (days + 29) / 30
	}
	return days
}

func runReport(_ *cobra.Command, _ []string) error {
	unit, err := aggregate.ParseUnit(flagReportUnit)
	if err != nil {
		return err
	}
	if flagReportDays < 1 {
		return fmt.Errorf("--days must be positive, got %d", flagReportDays)
	}

	ctx := context.Background()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	now := time.Now()
	cal := calendar()
	n := bucketCount(unit, flagReportDays)
	series := report.Series(nil, unit, "", n, now, cal)
	from := series[0].Start
	to := cal.Next(unit, series[len(series)-1].Start)

	ivs, err := historySince(ctx, s, from)
	if err != nil {
		return err
	}
	series = report.Series(ivs, unit, flagReportLabel, n, now, cal)

	title := "TIME PER " + strings.ToUpper(unit.String())
	if flagReportLabel != "" {
		title += "  " + flagReportLabel
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	var peak, total int64
	values := make([]float64, len(series))
	for i, b := range series {
		peak = max(peak, b.Total)
		total += b.Total
		values[i] = float64(b.Total)
	}
	barW := max(10, cli.TerminalWidth()-40)
	for _, b := range series {
		fmt.Printf("  %-16s %9s  %s\n", periodName(unit, b.Start), cli.FormatDuration(b.Total), cli.RenderBar(b.Total, peak, barW))
	}
	fmt.Println()
	fmt.Printf("  %s %s   %s %s\n",
		cli.Muted("Total"), cli.Value(cli.FormatDuration(total)),
		cli.Muted("Trend"), cli.RenderSparkline(values))
	fmt.Println()

	totals := aggregate.LabelTotals(aggregate.FilterByLabel(ivs, flagReportLabel), from.UnixMilli(), to.UnixMilli())
	if len(totals) > 0 {
		labels := make([]string, 0, len(totals))
		for l := range totals {
			labels = append(labels, l)
		}
		sort.Slice(labels, func(i, j int) bool {
			if totals[labels[i]] != totals[labels[j]] {
				return totals[labels[i]] > totals[labels[j]]
			}
			return labels[i] < labels[j]
		})
		rows := make([][]string, 0, len(labels))
		for _, l := range labels {
			rows = append(rows, []string{l, cli.FormatDuration(totals[l]), cli.FormatHours(totals[l])})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Workspaces",
			Headers: []string{"Workspace", "Time", "Hours"},
			Rows:    rows,
		}))
		fmt.Println()
	}
	return nil
}

// historySince collects the canonical history of every year from from's
// year up to the tracker's year.
func historySince(ctx context.Context, s *session, from time.Time) ([]interval.Interval, error) {
	var ivs []interval.Interval
	for year := store.YearOf(from.UnixMilli()); year <= s.tr.Year(); year++ {
		h, err := s.tr.History(ctx, year)
		if err != nil {
			return nil, fmt.Errorf("loading %d: %w", year, err)
		}
		ivs = append(ivs, h...)
	}
	return ivs, nil
}

func periodName(u aggregate.Unit, start time.Time) string {
	switch u {
	case aggregate.Week:
		return "week " + start.Format("2006-01-02")
	case aggregate.Month:
		return start.Format("2006 January")
	}
	return cli.FormatDay(start)
}
