package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	category key.Binding
	filter   key.Binding
	search   key.Binding
	watch    key.Binding
	remove   key.Binding
	open     key.Binding
	save     key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		category: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "category")),
		filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		search:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "search")),
		watch:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "toggle watched")),
		remove:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		save:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.category, k.filter, k.search},
		{k.watch, k.remove, k.open},
		{k.back, k.quit},
	}
}
