package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	next      key.Binding
	prev      key.Binding
	tabLeft   key.Binding
	tabRight  key.Binding
	refresh   key.Binding
	borrow    key.Binding
	ret       key.Binding
	returnAll key.Binding
	cancel    key.Binding
	confirm   key.Binding
	start     key.Binding
	complete  key.Binding
	yes       key.Binding
	no        key.Binding
	logout    key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		next:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next page")),
		prev:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev page")),
		tabLeft:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev tab")),
		tabRight:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next tab")),
		refresh:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		borrow:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "borrow")),
		ret:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "return")),
		returnAll: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "return all")),
		cancel:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel")),
		confirm:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "confirm")),
		start:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		complete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "done")),
		yes:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:        key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		logout:    key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "logout")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.next, k.refresh, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.next, k.prev, k.tabLeft, k.tabRight},
		{k.borrow, k.ret, k.returnAll, k.cancel},
		{k.confirm, k.start, k.complete},
		{k.refresh, k.logout, k.quit},
	}
}
