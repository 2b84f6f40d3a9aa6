package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/config"
	"github.com/theirongolddev/worktime/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	v := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(v).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled, nothing changed.")
			return nil
		}
		return err
	}

	next := cfg
	v.Apply(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	if err := config.Save(next); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	cfg = next

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Printf("  Data directory: %s\n", dataDir())
	fmt.Println("  Run `worktime setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
