package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the dashboard
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Marks
	Love    key.Binding
	Discard key.Binding

	// View
	HideDiscarded key.Binding
	OnlyLoved     key.Binding
	Sort          key.Binding
	Filter        key.Binding
	Summary       key.Binding

	// Query
	District key.Binding
	Refresh  key.Binding

	// Actions
	Open   key.Binding
	Quit   key.Binding
	Help   key.Binding
	Escape key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "go to bottom"),
		),

		Love: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "love"),
		),
		Discard: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "discard"),
		),

		HideDiscarded: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "hide discarded"),
		),
		OnlyLoved: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "only loved"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Summary: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "summary"),
		),

		District: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "district"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),

		Open: key.NewBinding(
			key.WithKeys("enter", "o"),
			key.WithHelp("enter", "open"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel/clear"),
		),
	}
}

// ShortHelp is the footer line
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Love, k.Discard, k.HideDiscarded, k.OnlyLoved, k.Sort, k.Filter, k.District, k.Refresh, k.Help, k.Quit}
}

// FullHelp is the help overlay
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Love, k.Discard, k.Open},
		{k.HideDiscarded, k.OnlyLoved, k.Sort, k.Filter, k.Summary},
		{k.District, k.Refresh, k.Escape, k.Quit},
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
