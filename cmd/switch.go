package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/cli"
	"github.com/theirongolddev/worktime/internal/interval"
)

var switchCmd = &cobra.Command{
	Use:   "switch <workspace...>",
	Short: "Close the running interval and continue in another workspace",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSwitch,
}

func init() {
	rootCmd.AddCommand(switchCmd)
}

func runSwitch(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	labels := interval.NewLabels(args...)
	if len(labels) == 0 {
		return fmt.Errorf("switch: %w: empty workspace", interval.ErrInvalidInterval)
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	from := ""
	if cur := s.tr.Current(); cur != nil {
		from = cur.Labels.String()
	}
	if err := s.tr.Start(ctx, labels); err != nil {
		return fmt.Errorf("switching: %w", err)
	}
	if err := s.save(ctx); err != nil {
		return err
	}

	if from == "" || from == labels.String() {
		fmt.Printf("  %s %s\n", cli.Running("Tracking"), cli.Label(labels.String()))
		return nil
	}
	fmt.Printf("  %s %s %s %s\n", cli.Running("Switched"), cli.Muted(from), cli.Muted("→"), cli.Label(labels.String()))
	return nil
}
