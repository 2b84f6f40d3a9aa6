// Package theme holds the color palettes of the worktime dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme assigns colors to the roles the dashboard renders with.
type Theme struct {
	Name         string
	Background   lipgloss.Color
	Surface      lipgloss.Color // cards and bars
	Border       lipgloss.Color
	BorderAccent lipgloss.Color
	TextDim      lipgloss.Color
	TextMuted    lipgloss.Color
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color
	Running      lipgloss.Color
	Stopped      lipgloss.Color
	Warn         lipgloss.Color
	Pause        lipgloss.Color
}

// Active is the theme used for rendering.
var Active = FlexokiDark

var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	Border:       lipgloss.Color("#403E3C"),
	BorderAccent: lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	Running:      lipgloss.Color("#879A39"),
	Stopped:      lipgloss.Color("#D14D41"),
	Warn:         lipgloss.Color("#DA702C"),
	Pause:        lipgloss.Color("#D0A215"),
}

var CatppuccinMocha = Theme{
	Name:         "catppuccin-mocha",
	Background:   lipgloss.Color("#1E1E2E"),
	Surface:      lipgloss.Color("#313244"),
	Border:       lipgloss.Color("#585B70"),
	BorderAccent: lipgloss.Color("#89B4FA"),
	TextDim:      lipgloss.Color("#6C7086"),
	TextMuted:    lipgloss.Color("#A6ADC8"),
	TextPrimary:  lipgloss.Color("#CDD6F4"),
	Accent:       lipgloss.Color("#89B4FA"),
	AccentBright: lipgloss.Color("#B4D0FB"),
	Running:      lipgloss.Color("#A6E3A1"),
	Stopped:      lipgloss.Color("#F38BA8"),
	Warn:         lipgloss.Color("#FAB387"),
	Pause:        lipgloss.Color("#F9E2AF"),
}

var TokyoNight = Theme{
	Name:         "tokyo-night",
	Background:   lipgloss.Color("#1A1B26"),
	Surface:      lipgloss.Color("#24283B"),
	Border:       lipgloss.Color("#565F89"),
	BorderAccent: lipgloss.Color("#7AA2F7"),
	TextDim:      lipgloss.Color("#565F89"),
	TextMuted:    lipgloss.Color("#A9B1D6"),
	TextPrimary:  lipgloss.Color("#C0CAF5"),
	Accent:       lipgloss.Color("#7AA2F7"),
	AccentBright: lipgloss.Color("#A9C1FF"),
	Running:      lipgloss.Color("#9ECE6A"),
	Stopped:      lipgloss.Color("#F7768E"),
	Warn:         lipgloss.Color("#FF9E64"),
	Pause:        lipgloss.Color("#E0AF68"),
}

// Terminal sticks to the ANSI 16 palette.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	Running:      lipgloss.Color("2"),
	Stopped:      lipgloss.Color("1"),
	Warn:         lipgloss.Color("3"),
	Pause:        lipgloss.Color("11"),
}

// All lists the selectable themes, default first.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// Names returns the names of All in order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// ByName returns the named theme, or FlexokiDark when unknown.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

func SetActive(name string) {
	Active = ByName(name)
}
