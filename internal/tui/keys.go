package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Swiping
	Trash    key.Binding
	Keep     key.Binding
	Favorite key.Binding
	Undo     key.Binding
	Open     key.Binding

	// Views
	Albums    key.Binding
	TrashView key.Binding
	Favorites key.Binding
	Stats     key.Binding

	// List navigation
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Filter key.Binding
	Remove key.Binding
	Empty  key.Binding

	// Actions
	Refresh key.Binding
	Grant   key.Binding
	Quit    key.Binding
	Help    key.Binding
	Escape  key.Binding

	// Confirmations
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Trash: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "trash"),
		),
		Keep: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "keep"),
		),
		Favorite: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "favorite"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u", "ctrl+z"),
			key.WithHelp("u", "undo"),
		),
		Open: key.NewBinding(
			key.WithKeys("o", "enter"),
			key.WithHelp("o", "open in viewer"),
		),
		Albums: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "albums"),
		),
		TrashView: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "trash"),
		),
		Favorites: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "favorites"),
		),
		Stats: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "statistics"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x", "d"),
			key.WithHelp("x", "restore/remove"),
		),
		Empty: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "empty trash"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Grant: key.NewBinding(
			key.WithKeys("g", "enter"),
			key.WithHelp("g", "grant access"),
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
			key.WithHelp("esc", "back"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
	}
}

// Keys is the global key map
var Keys = DefaultKeyMap()

// HelpSection groups related bindings on the help screen
type HelpSection struct {
	Title    string
	Bindings []key.Binding
}

// HelpSections returns the key help grouped by screen
func HelpSections() []HelpSection {
	return []HelpSection{
		{Title: "Swiping", Bindings: []key.Binding{Keys.Keep, Keys.Trash, Keys.Favorite, Keys.Undo, Keys.Open}},
		{Title: "Views", Bindings: []key.Binding{Keys.Albums, Keys.TrashView, Keys.Favorites, Keys.Stats, Keys.Refresh}},
		{Title: "Lists", Bindings: []key.Binding{Keys.Up, Keys.Down, Keys.Enter, Keys.Filter, Keys.Remove, Keys.Empty, Keys.Escape}},
		{Title: "General", Bindings: []key.Binding{Keys.Help, Keys.Quit}},
	}
}
