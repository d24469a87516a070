package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type composeKind int

const (
	composeNone composeKind = iota
	composeReply
	composeRoot
	composeThread
)

func (k composeKind) label() string {
	switch k {
	case composeReply:
		return "Reply"
	case composeRoot:
		return "New entry"
	case composeThread:
		return "Thread title"
	default:
		return ""
	}
}

func (m appModel) startCompose(kind composeKind, parentID string) (tea.Model, tea.Cmd) {
	if m.actorID == "" {
		m.setError(errNoActor)
		return m, nil
	}
	m.composeKind = kind
	m.composeParent = parentID
	m.compose.SetValue("")
	m.compose.Placeholder = kind.label()
	m.compose.Focus()
	m.resize()
	return m, textinput.Blink
}

func (m *appModel) endCompose() {
	m.composeKind = composeNone
	m.composeParent = ""
	m.compose.Blur()
	m.compose.SetValue("")
	m.resize()
}

func (m appModel) updateCompose(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.endCompose()
		m.setStatus("discarded")
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.compose.Value())
		kind, parent := m.composeKind, m.composeParent
		m.endCompose()
		if text == "" {
			m.setStatus("nothing to save")
			return m, nil
		}
		switch kind {
		case composeThread:
			return m, m.commitThread(text)
		default:
			return m, m.commitEntry(parent, text)
		}
	}
	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return m, cmd
}

func (m appModel) composeLine() string {
	w := m.width
	if w < 20 {
		w = 20
	}
	label := styleAccent().Render(m.composeKind.label() + ":")
	bodyW := w - xansi.StringWidth(label) - 1
	return label + " " + renderInputLine(bodyW, m.compose.View())
}

// renderInputLine keeps a text input on one visual line of exactly bodyW cells.
func renderInputLine(bodyW int, inputView string) string {
	if bodyW < 10 {
		bodyW = 10
	}
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}
