package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/worktime/internal/tui/theme"
)

var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as a single row of block characters.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := maxOf(values)
	var b strings.Builder
	for _, v := range values {
		idx := 1 + int(v/peak*7)
		if v <= 0 {
			idx = 1
		}
		if idx > 8 {
			idx = 8
		}
		b.WriteRune(eighths[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(b.String())
}

// BarChart renders hour values as vertical bars with a y axis in hours and
// the labels under the bars. It falls back to a sparkline when the area is
// too small.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	step := hourTickStep(maxOf(values), height)
	ceiling := math.Ceil(maxOf(values)/step) * step
	ticks := int(math.Round(ceiling / step))
	rowsPerTick := max(1, height/ticks)
	chartH := rowsPerTick * ticks

	axisW := len(hourLabel(ceiling)) + 1
	plotW := max(5, width-axisW-1)

	n := len(values)
	barW := max(1, min(6, (plotW-(n-1))/n))
	if barW*n+(n-1) > plotW {
		// Too many bars for the width: keep the most recent ones.
		keep := (plotW + 1) / 2
		values = values[n-keep:]
		if len(labels) == n {
			labels = labels[n-keep:]
		}
		n = keep
		barW = 1
	}
	axisLen := n*barW + n - 1

	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		top := ceiling * float64(row) / float64(chartH)
		bottom := ceiling * float64(row-1) / float64(chartH)

		label := ""
		if row%rowsPerTick == 0 {
			label = hourLabel(step * float64(row/rowsPerTick))
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", axisW, label)))

		for i, v := range values {
			if i > 0 {
				b.WriteString(blank.Render(" "))
			}
			switch {
			case v >= top:
				b.WriteString(bar.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := int((v - bottom) / (top - bottom) * 8)
				idx = max(1, min(8, idx))
				b.WriteString(bar.Render(strings.Repeat(string(eighths[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", axisW, "0", strings.Repeat("─", axisLen))))

	if len(labels) == n {
		line := []rune(strings.Repeat(" ", axisLen))
		next := 0
		for i, lbl := range labels {
			pos := i * (barW + 1)
			r := []rune(lbl)
			if pos < next || pos+len(r) > axisLen {
				continue
			}
			copy(line[pos:], r)
			next = pos + len(r) + 1
		}
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", axisW+1)))
		b.WriteString(axis.Render(strings.TrimRight(string(line), " ")))
	}
	return b.String()
}

// hourTickStep picks a step of 1, 2, 4, 8... hours (or a half hour for
// small values) so at most height/2 ticks are drawn.
func hourTickStep(peak float64, height int) float64 {
	maxTicks := max(2, height/2)
	step := 0.5
	for math.Ceil(peak/step) > float64(maxTicks) {
		step *= 2
	}
	return step
}

func hourLabel(h float64) string {
	if h == math.Trunc(h) {
		return fmt.Sprintf("%.0fh", h)
	}
	return fmt.Sprintf("%.1fh", h)
}

func maxOf(values []float64) float64 {
	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		return 1
	}
	return peak
}
