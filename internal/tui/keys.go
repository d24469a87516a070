package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Back     key.Binding
	Quit     key.Binding
	Reload   key.Binding
	Help     key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Grab     key.Binding
	Cycle    key.Binding
	Drop     key.Binding
	Cancel   key.Binding
	Reply    key.Binding
	AddRoot  key.Binding
	Hide     key.Binding
	Restore  key.Binding
	NewTopic key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:     key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		MoveUp:   key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move up")),
		MoveDown: key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move down")),
		Grab:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "pick up")),
		Cycle:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "drop position")),
		Drop:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Reply:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "reply")),
		AddRoot:  key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "new entry")),
		Hide:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "hide")),
		Restore:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "restore")),
		NewTopic: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new thread")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "scroll preview")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "scroll preview")),
	}
}

// The help view depends on what the keys currently do, so each mode has its own help map.

type threadsHelp struct{ k keyMap }

func (h threadsHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Open, h.k.NewTopic, h.k.Reload, h.k.Quit}
}

func (h threadsHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{{h.k.Up, h.k.Down, h.k.Open}, {h.k.NewTopic, h.k.Reload, h.k.Quit}}
}

type threadHelp struct{ k keyMap }

func (h threadHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.MoveUp, h.k.MoveDown, h.k.Grab, h.k.Reply, h.k.AddRoot, h.k.Back, h.k.Help}
}

func (h threadHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{h.k.Up, h.k.Down, h.k.PageUp, h.k.PageDown},
		{h.k.MoveUp, h.k.MoveDown, h.k.Grab},
		{h.k.Reply, h.k.AddRoot, h.k.Hide, h.k.Restore},
		{h.k.Reload, h.k.Back, h.k.Quit},
	}
}

type dragHelp struct{ k keyMap }

func (h dragHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Up, h.k.Down, h.k.Cycle, h.k.Drop, h.k.Cancel}
}

func (h dragHelp) FullHelp() [][]key.Binding { return [][]key.Binding{h.ShortHelp()} }

type composeHelp struct{}

func (composeHelp) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (h composeHelp) FullHelp() [][]key.Binding { return [][]key.Binding{h.ShortHelp()} }
