package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	Sync       key.Binding
	Rediscover key.Binding
	ToggleLogs key.Binding
	Artwork    key.Binding
	Retry      key.Binding
	CycleTheme key.Binding
	Help       key.Binding
	Quit       key.Binding

	// Log scrolling and artwork selection
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Sync: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sync"),
		),
		Rediscover: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rediscover"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "logs"),
		),
		Artwork: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "artwork"),
		),
		Retry: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "retry image"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Sync, k.Rediscover, k.ToggleLogs, k.Artwork, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Sync, k.Rediscover, k.ToggleLogs, k.Artwork, k.Retry},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
