package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/cli"
	"github.com/theirongolddev/worktime/internal/interval"
)

var flagConsolidateDryRun bool

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Merge overlapping intervals in every stored year",
	Args:  cobra.NoArgs,
	RunE:  runConsolidate,
}

func init() {
	consolidateCmd.Flags().BoolVar(&flagConsolidateDryRun, "dry-run", false, "Report without writing")
	rootCmd.AddCommand(consolidateCmd)
}

func runConsolidate(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	years, err := st.Years(ctx)
	if err != nil {
		return fmt.Errorf("listing years: %w", err)
	}
	if len(years) == 0 {
		fmt.Println("  No stored intervals.")
		return nil
	}

	var rows [][]string
	for _, year := range years {
		var before, after int
		var total int64
		changed := false
		err := st.WithLock(ctx, func() error {
			raw, err := st.Load(ctx, year)
			if err != nil {
				return err
			}
			canonical := interval.SortByStart(interval.Consolidate(raw))
			before, after = len(raw), len(canonical)
			total = interval.TotalDuration(canonical)
			changed = !interval.EqualAll(raw, canonical)
			if flagConsolidateDryRun || !changed {
				return nil
			}
			return st.Save(ctx, year, canonical)
		})
		if err != nil {
			return fmt.Errorf("consolidating %d: %w", year, err)
		}
		rows = append(rows, []string{
			fmt.Sprint(year),
			fmt.Sprint(before),
			fmt.Sprint(after),
			cli.FormatDuration(total),
			changedMark(changed, flagConsolidateDryRun),
		})
	}

	title := "Consolidated"
	if flagConsolidateDryRun {
		title = "Consolidation preview"
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Year", "Before", "After", "Time", "Status"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func changedMark(changed, dryRun bool) string {
	switch {
	case !changed:
		return "canonical"
	case dryRun:
		return "would rewrite"
	}
	return "rewritten"
}
