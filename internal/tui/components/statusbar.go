package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/worktime/internal/tui/theme"
)

// RenderStatusBar renders the bottom bar with hints on the left and info
// right-aligned.
func RenderStatusBar(width int, hints, info string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	left := " " + hints
	right := ""
	if info != "" {
		right = info + " "
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		return style.Width(width).Render(left)
	}
	return style.Render(left + strings.Repeat(" ", padding) + right)
}
