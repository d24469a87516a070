package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// startDrag picks up the selected entry. j/k then walk the legal drop targets.
func (m *appModel) startDrag() {
	e, ok := m.selected()
	if !ok {
		return
	}
	if m.actorID == "" {
		m.setError(errNoActor)
		return
	}
	next, err := m.drag.Start(m.idx, e.ID)
	if err != nil {
		m.setError(err)
		return
	}
	m.drag = next
	m.refreshDropTargets()
	m.dropAt = -1
	if len(m.dropTargets) == 0 {
		m.setStatus("moving %s: no legal drop targets (esc to cancel)", e.ID)
		return
	}
	m.setStatus("moving %s: j/k choose a target, tab changes position, enter drops", e.ID)
}

func (m *appModel) refreshDropTargets() {
	m.dropTargets = m.idx.DropTargets(m.drag.EntryID)
	if m.dropAt >= len(m.dropTargets) {
		m.dropAt = -1
	}
}

func (m appModel) isDropTarget(id string) bool {
	for _, t := range m.dropTargets {
		if t.TargetID == id {
			return true
		}
	}
	return false
}

func (m appModel) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.Down):
		m.aim(1)
	case key.Matches(msg, m.keys.Up):
		m.aim(-1)
	case key.Matches(msg, m.keys.Cycle):
		m.drag = m.drag.Cycle(m.idx)
	case key.Matches(msg, m.keys.Drop):
		entryID := m.drag.EntryID
		next, p, ok := m.drag.Drop()
		m.drag = next
		m.dropTargets = nil
		m.dropAt = -1
		if !ok {
			m.setStatus("dropped outside a legal target; nothing moved")
			return m, nil
		}
		m.selectEntry(entryID)
		m.setStatus("moving %s %s%s", entryID, p, glyphPending())
		return m, m.commitMove(entryID, p)
	case key.Matches(msg, m.keys.Cancel):
		m.drag = m.drag.Cancel()
		m.dropTargets = nil
		m.dropAt = -1
		m.setStatus("move cancelled")
	}
	return m, nil
}

// aim steps through the drop targets in render order and hovers the first legal position
// of the one it lands on.
func (m *appModel) aim(delta int) {
	n := len(m.dropTargets)
	if n == 0 {
		return
	}
	switch {
	case m.dropAt < 0 && delta > 0:
		m.dropAt = 0
	case m.dropAt < 0:
		m.dropAt = n - 1
	default:
		m.dropAt = ((m.dropAt+delta)%n + n) % n
	}
	target := m.dropTargets[m.dropAt]
	next, ok := m.drag.Aim(m.idx, target.TargetID)
	m.drag = next
	if !ok {
		return
	}
	m.selectEntry(target.TargetID)
	m.syncPreview()
}
