package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/cli"
)

var startCmd = &cobra.Command{
	Use:   "start [workspace...]",
	Short: "Start tracking a workspace",
	Long: "Start tracking the given workspace labels, or the detected workspace.\n" +
		"A running interval with other labels is closed first.",
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	labels, err := labelsFor(ctx, args)
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if cur := s.tr.Current(); cur != nil && cur.Labels.Equal(labels) {
		fmt.Printf("  Already tracking %s since %s\n",
			cli.Label(labels.String()), cli.FormatClock(cur.Start, time.Local))
		return nil
	}
	if err := s.tr.Start(ctx, labels); err != nil {
		return fmt.Errorf("starting: %w", err)
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	fmt.Printf("  %s %s\n", cli.Running("Tracking"), cli.Label(labels.String()))
	return nil
}
