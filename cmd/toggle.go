package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/cli"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle [workspace...]",
	Short: "Stop when tracking, start otherwise",
	RunE:  runToggle,
}

func init() {
	rootCmd.AddCommand(toggleCmd)
}

func runToggle(_ *cobra.Command, args []string) error {
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

	running, err := s.tr.Toggle(ctx, labels)
	if err != nil {
		return fmt.Errorf("toggling: %w", err)
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	if running {
		fmt.Printf("  %s %s\n", cli.Running("Tracking"), cli.Label(labels.String()))
	} else {
		fmt.Printf("  %s\n", cli.Warn("Stopped"))
	}
	return nil
}
