package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/config"
	"github.com/theirongolddev/worktime/internal/tui"
	"github.com/theirongolddev/worktime/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(cfg.Display.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

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

	app := tui.NewApp(tui.Options{
		Tracker:      s.tr,
		Workspace:    ws,
		Calendar:     calendar(),
		Reminders:    cfg.Reminders,
		Display:      cfg.Display,
		SaveInterval: config.SaveInterval(cfg),
		Setup:        !config.Exists(),
		Config:       cfg,
		SaveConfig:   config.Save,
		Now:          time.Now,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	_, runErr := p.Run()
	if err := s.save(ctx); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}
