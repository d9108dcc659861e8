package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	tab     key.Binding
	enter   key.Binding
	back    key.Binding
	toggle  key.Binding
	next    key.Binding
	prev    key.Binding
	forward key.Binding
	rewind  key.Binding
	save    key.Binding
	remove  key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		tab:     key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch tab")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		forward: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "seek +5%")),
		rewind:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "seek -5%")),
		save:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save queue")),
		remove:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.toggle, k.next, k.prev, k.tab, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.tab, k.enter, k.back},
		{k.toggle, k.next, k.prev, k.forward, k.rewind},
		{k.save, k.remove, k.refresh, k.quit},
	}
}
