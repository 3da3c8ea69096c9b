package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding of the library browser. Form and prompt
// bindings are only consulted while those are open.
type keyMap struct {
	Quit    key.Binding
	Search  key.Binding
	Details key.Binding
	Back    key.Binding
	Create  key.Binding
	Lookup  key.Binding
	Refresh key.Binding
	Edit    key.Binding
	Delete  key.Binding

	Confirm key.Binding
	Cancel  key.Binding
	Next    key.Binding
	Prev    key.Binding
	Toggle  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace", "h"),
			key.WithHelp("esc", "back"),
		),
		Create: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Lookup: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "isbn lookup"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y", "enter"),
			key.WithHelp("y", "yes"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
	}
}
