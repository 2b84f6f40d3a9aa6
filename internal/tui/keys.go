package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle  key.Binding
	Flush   key.Binding
	Reload  key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Up      key.Binding
	Down    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Toggle:  key.NewBinding(key.WithKeys("s", " "), key.WithHelp("s", "start/stop")),
		Flush:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "save now")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		NextTab: key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("→/tab", "next view")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("←", "previous view")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Flush, k.NextTab, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Flush, k.Reload},
		{k.NextTab, k.PrevTab, k.Up, k.Down},
		{k.Help, k.Quit},
	}
}
