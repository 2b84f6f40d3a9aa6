package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/worktime/internal/tui/theme"
)

// Tab is one dashboard view with its shortcut letter.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // index of Key in Name
}

// Tabs in display order.
var Tabs = []Tab{
	{Name: "Today", Key: 't', KeyPos: 0},
	{Name: "Days", Key: 'd', KeyPos: 0},
	{Name: "Weeks", Key: 'w', KeyPos: 0},
	{Name: "Months", Key: 'm', KeyPos: 0},
}

const tabSeparator = " "

func renderTab(tab Tab, active bool) string {
	t := theme.Active
	pad := lipgloss.NewStyle().Background(t.Surface)

	if active {
		name := lipgloss.NewStyle().
			Foreground(t.AccentBright).
			Background(t.Surface).
			Bold(true).
			Render(tab.Name)
		return pad.Render(" ") + name + pad.Render(" ")
	}

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	bracket := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	key := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	before := tab.Name[:tab.KeyPos]
	after := tab.Name[tab.KeyPos+1:]
	return pad.Render(" ") +
		muted.Render(before) +
		bracket.Render("[") + key.Render(string(tab.Name[tab.KeyPos])) + bracket.Render("]") +
		muted.Render(after) +
		pad.Render(" ")
}

// TabVisualWidth is the rendered cell width of tab. Mouse hit testing relies
// on it matching RenderTabBar.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(renderTab(tab, active))
}

// RenderTabBar renders the tab row, filled to width.
func RenderTabBar(activeIdx, width int) string {
	t := theme.Active
	sep := lipgloss.NewStyle().Background(t.Surface).Render(tabSeparator)

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		parts[i] = renderTab(tab, i == activeIdx)
	}
	row := strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(row)
}

// TabIdxByKey returns the tab whose shortcut is key, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
