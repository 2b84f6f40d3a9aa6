package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/worktime/internal/tui/theme"
)

// ColorForPct shifts from the accent color to warning as a reminder
// approaches.
func ColorForPct(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 0.95:
		return t.Stopped
	case pct >= 0.8:
		return t.Warn
	default:
		return t.Accent
	}
}

// ReminderBar renders a labeled bar filled by the share of the reminder
// interval already worked, followed by the remaining time. In a pause the
// bar uses the pause color.
func ReminderBar(label string, pct float64, remaining string, inPause bool, labelW, barWidth int) string {
	t := theme.Active
	pct = max(0, min(1, pct))

	color := ColorForPct(pct)
	if inPause {
		color = t.Pause
	}

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	leftStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		space +
		bar.ViewAs(pct) +
		space +
		leftStyle.Render(remaining)
}
