package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var flagClearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all saved intervals of the current year",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&flagClearYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(clearCmd)
}

func runClear(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if !flagClearYes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete all %d intervals tracked in %d?", len(s.tr.Saved())+s.tr.Pending(), s.tr.Year())).
			Description(s.st.Location(s.tr.Year())).
			Affirmative("Delete").
			Negative("Keep").
			Value(&confirmed).
			Run()
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if !confirmed {
			fmt.Println("  Nothing deleted.")
			return nil
		}
	}

	if err := s.tr.Clear(ctx); err != nil {
		return err
	}
	fmt.Printf("  Cleared %d.\n", s.tr.Year())
	if s.tr.Running() {
		fmt.Println("  The running interval restarts now.")
	}
	return nil
}
