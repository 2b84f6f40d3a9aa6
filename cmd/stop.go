package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/cli"
	"github.com/theirongolddev/worktime/internal/tracker"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop tracking",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	iv, err := s.tr.Stop(ctx)
	if errors.Is(err, tracker.ErrNotRunning) {
		fmt.Println("  Not tracking.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("stopping: %w", err)
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	fmt.Printf("  Stopped %s after %s\n", cli.Label(iv.Labels.String()), cli.Value(cli.FormatDuration(iv.Duration())))
	return nil
}
