package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/worktime/internal/tui/theme"
)

func init() {
	// Background fill is only visible in the output with a color profile.
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowPadsShorterCards(t *testing.T) {
	theme.SetActive("flexoki-dark")

	short := ContentCard("Short", "Content", 22)
	tall := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(short)
	tallLines := lipgloss.Height(tall)
	if shortLines >= tallLines {
		t.Fatalf("short card has %d lines, tall card %d", shortLines, tallLines)
	}

	joined := CardRow([]string{short, tall})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	for i := shortLines; i < len(lines); i++ {
		if !strings.HasPrefix(lines[i], "\x1b[") {
			t.Errorf("line %d padding starts without a style: %q", i, lines[i])
		}
	}

	want := lipgloss.Width(lines[0])
	for i, line := range lines {
		if w := lipgloss.Width(line); w != want {
			t.Errorf("line %d width = %d, want %d", i, w, want)
		}
	}
}

func TestMetricCardRowFillsWidth(t *testing.T) {
	theme.SetActive("terminal")
	defer theme.SetActive("flexoki-dark")

	row := MetricCardRow([]Metric{
		{Label: "Total", Value: "3h 10m"},
		{Label: "Today", Value: "45m"},
		{Label: "Workspace", Value: "1h 2m", Note: "api"},
	}, 61)

	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 61 {
			t.Fatalf("line %d width = %d, want 61", i, w)
		}
	}
}

func TestLayoutRow(t *testing.T) {
	widths := LayoutRow(10, 3)
	if len(widths) != 3 || widths[0] != 4 || widths[1] != 3 || widths[2] != 3 {
		t.Fatalf("LayoutRow(10, 3) = %v, want [4 3 3]", widths)
	}
	if LayoutRow(10, 0) != nil {
		t.Fatal("LayoutRow(10, 0) should be nil")
	}
}
