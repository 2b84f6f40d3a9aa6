package tui

import (
	"testing"

	"github.com/theirongolddev/worktime/internal/tui/components"
)

func TestTabAtXMatchesTabWidths(t *testing.T) {
	n := len(components.Tabs)
	for active := 0; active < n; active++ {
		a := App{activeTab: active}
		pos := 0

		for i := 0; i < n; i++ {
			w := tabWidthForTest(i, active)
			x := pos + w/2
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w
			if i < n-1 {
				if got := a.tabAtX(pos); got != -1 {
					t.Fatalf("active=%d separator x=%d -> tab=%d, want -1", active, pos, got)
				}
				pos++
			}
		}
		if got := a.tabAtX(pos + 5); got != -1 {
			t.Fatalf("active=%d past last tab -> %d, want -1", active, got)
		}
	}
}

func tabWidthForTest(tabIdx, activeIdx int) int {
	w := len(components.Tabs[tabIdx].Name) + 2 // one cell of padding per side
	if tabIdx != activeIdx {
		w += 2 // "[" and "]" around the shortcut
	}
	return w
}
