// Package components provides the widgets the worktime dashboard is built from.
package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/worktime/internal/tui/theme"
)

// Metric is one counter shown in a card.
type Metric struct {
	Label string
	Value string
	Note  string
	// Highlight colors the value, for example green while tracking.
	Highlight lipgloss.Color
}

// LayoutRow splits totalWidth into n widths summing to totalWidth. The
// first widths take the remainder.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	rem := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < rem {
			widths[i]++
		}
	}
	return widths
}

func cardStyle(outerWidth int) lipgloss.Style {
	t := theme.Active
	w := outerWidth - 2
	if w < 10 {
		w = 10
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(w).
		Padding(0, 1)
}

// MetricCard renders m in a bordered card of outerWidth cells.
func MetricCard(m Metric, outerWidth int) string {
	t := theme.Active
	valueColor := t.TextPrimary
	if m.Highlight != "" {
		valueColor = m.Highlight
	}

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(m.Label)
	value := lipgloss.NewStyle().Foreground(valueColor).Background(t.Surface).Bold(true).Render(m.Value)
	content := label + "\n" + value
	if m.Note != "" {
		content += "\n" + lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(m.Note)
	}
	return cardStyle(outerWidth).Render(content)
}

// MetricCardRow lays metrics out side by side across totalWidth.
func MetricCardRow(metrics []Metric, totalWidth int) string {
	if len(metrics) == 0 {
		return ""
	}
	widths := LayoutRow(totalWidth, len(metrics))
	cards := make([]string, len(metrics))
	for i, m := range metrics {
		cards[i] = MetricCard(m, widths[i])
	}
	return CardRow(cards)
}

// ContentCard renders body in a bordered card with an optional title.
func ContentCard(title, body string, outerWidth int) string {
	t := theme.Active
	content := ""
	if title != "" {
		content = lipgloss.NewStyle().
			Foreground(t.TextMuted).
			Background(t.Surface).
			Bold(true).
			Render(title) + "\n"
	}
	content += body
	return cardStyle(outerWidth).Render(content)
}

// CardRow joins rendered cards horizontally. Shorter cards are padded with
// the background color so the row stays a solid block.
func CardRow(cards []string) string {
	if len(cards) == 0 {
		return ""
	}
	height := 0
	for _, c := range cards {
		if h := lipgloss.Height(c); h > height {
			height = h
		}
	}
	bg := lipgloss.WithWhitespaceBackground(theme.Active.Background)
	padded := make([]string, len(cards))
	for i, c := range cards {
		padded[i] = lipgloss.PlaceVertical(height, lipgloss.Top, c, bg)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, padded...)
}

// CardInnerWidth is the text width inside a card of outerWidth.
func CardInnerWidth(outerWidth int) int {
	w := outerWidth - 4
	if w < 10 {
		w = 10
	}
	return w
}
