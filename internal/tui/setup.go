package tui

import (
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/worktime/internal/config"
	"github.com/theirongolddev/worktime/internal/store"
	"github.com/theirongolddev/worktime/internal/tui/theme"
)

// SetupValues are the answers collected by the setup form.
type SetupValues struct {
	Workspace     string
	Backend       string
	IncludeBranch bool
	WeekStart     string
	Theme         string
}

// SetupValuesFrom prefills the form from cfg.
func SetupValuesFrom(cfg config.Config) *SetupValues {
	return &SetupValues{
		Workspace:     cfg.General.DefaultWorkspace,
		Backend:       cfg.General.Backend,
		IncludeBranch: cfg.General.IncludeBranch,
		WeekStart:     cfg.Display.WeekStart,
		Theme:         cfg.Display.Theme,
	}
}

// Apply copies the answers into cfg.
func (v *SetupValues) Apply(cfg *config.Config) {
	cfg.General.DefaultWorkspace = strings.TrimSpace(v.Workspace)
	cfg.General.Backend = v.Backend
	cfg.General.IncludeBranch = v.IncludeBranch
	cfg.Display.WeekStart = v.WeekStart
	cfg.Display.Theme = v.Theme
}

// NewSetupForm builds the first-run form writing into v. The same form backs
// `worktime setup` and the dashboard's first launch.
func NewSetupForm(v *SetupValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to worktime").
				Description("A few questions, then tracking starts.\nRun `worktime setup` anytime to change them."),
			huh.NewInput().
				Title("Default workspace").
				Description("Label used when the current directory is not a git repository.").
				Placeholder("scratch").
				Value(&v.Workspace),
			huh.NewConfirm().
				Title("Track the git branch as part of the workspace?").
				Affirmative("Yes").
				Negative("No").
				Value(&v.IncludeBranch),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Storage").
				Options(
					huh.NewOption("JSON files, one per year", store.BackendJSON),
					huh.NewOption("SQLite database", store.BackendSQLite),
				).
				Value(&v.Backend),
			huh.NewSelect[string]().
				Title("Weeks start on").
				Options(huh.NewOptions("monday", "sunday", "saturday")...).
				Value(&v.WeekStart),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&v.Theme),
		),
	).WithTheme(huh.ThemeCharm())
}
