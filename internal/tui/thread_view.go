package tui

import (
	"errors"
	"fmt"
	"strings"

	"replytree/internal/drag"
	"replytree/internal/model"
	"replytree/internal/store"
	"replytree/internal/tree"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

var errNoActor = errors.New("no actor: start with --actor or set one with `replytree config set actor <id>`")

// openThread switches to the thread view of id.
func (m *appModel) openThread(id string) error {
	if err := m.loadThread(id); err != nil {
		return err
	}
	m.view = viewThread
	m.cursor = 0
	m.drag = drag.State{}
	m.dropTargets = nil
	m.dropAt = -1
	m.syncPreview()
	return nil
}

// loadThread re-reads the thread and rebuilds the index, keeping the cursor on the same
// entry when it still exists.
func (m *appModel) loadThread(id string) error {
	th, err := m.st.GetThread(m.ctx, id)
	if err != nil {
		return err
	}
	entries, err := m.st.ListEntries(m.ctx, th.ID)
	if err != nil {
		return err
	}
	selected := ""
	if e, ok := m.selected(); ok {
		selected = e.ID
	}

	m.thread = th
	m.idx = tree.Build(entries)
	m.rows = m.idx.Rows()
	if cyc := m.idx.CyclicIDs(); len(cyc) > 0 {
		m.log.Warn("thread has cyclic entries", "thread", th.ID, "entries", cyc)
	}
	if selected != "" {
		m.selectEntry(selected)
	}
	m.clampCursor()

	// A drag whose entry vanished, or was hidden elsewhere, cannot continue.
	if m.drag.Active() {
		if e, ok := m.idx.Entry(m.drag.EntryID); !ok || e.Hidden {
			m.drag = m.drag.Cancel()
			m.dropTargets = nil
			m.setStatus("move cancelled: the entry changed")
		} else {
			m.refreshDropTargets()
		}
	}
	m.syncPreview()
	return nil
}

func (m appModel) selected() (model.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return model.Entry{}, false
	}
	return m.rows[m.cursor].Entry, true
}

func (m *appModel) selectEntry(id string) {
	if i := m.rowIndex(id); i >= 0 {
		m.cursor = i
	}
}

func (m appModel) rowIndex(id string) int {
	for i, r := range m.rows {
		if r.Entry.ID == id {
			return i
		}
	}
	return -1
}

func (m *appModel) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m appModel) updateThread(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.drag.Active() {
		return m.updateDrag(msg)
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.view = viewThreads
		m.refreshThreads()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampCursor()
		m.syncPreview()
	case key.Matches(msg, m.keys.Up):
		m.cursor--
		m.clampCursor()
		m.syncPreview()
	case key.Matches(msg, m.keys.PageDown):
		m.preview.SetYOffset(m.preview.YOffset + m.preview.Height/2)
	case key.Matches(msg, m.keys.PageUp):
		m.preview.SetYOffset(m.preview.YOffset - m.preview.Height/2)
	case key.Matches(msg, m.keys.MoveUp):
		return m.moveDirectional(tree.Up)
	case key.Matches(msg, m.keys.MoveDown):
		return m.moveDirectional(tree.Down)
	case key.Matches(msg, m.keys.Grab):
		m.startDrag()
	case key.Matches(msg, m.keys.Reply):
		e, ok := m.selected()
		if !ok || e.Hidden {
			m.setStatus("select a visible entry to reply to")
			return m, nil
		}
		d, err := m.idx.DepthOf(e.ID)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		if d >= tree.MaxDepth {
			m.setError(tree.DepthError{EntryID: e.ID, Depth: d + 1})
			return m, nil
		}
		return m.startCompose(composeReply, e.ID)
	case key.Matches(msg, m.keys.AddRoot):
		return m.startCompose(composeRoot, "")
	case key.Matches(msg, m.keys.Hide):
		return m.setHidden(true)
	case key.Matches(msg, m.keys.Restore):
		return m.setHidden(false)
	case key.Matches(msg, m.keys.Reload):
		m.reload()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// moveDirectional checks the move against the local projection for instant feedback, then
// commits it; the store re-validates against what it holds.
func (m appModel) moveDirectional(d tree.Direction) (tea.Model, tea.Cmd) {
	e, ok := m.selected()
	if !ok {
		return m, nil
	}
	if m.actorID == "" {
		m.setError(errNoActor)
		return m, nil
	}
	if m.drag.IsPending(e.ID) {
		m.setError(drag.ErrPending)
		return m, nil
	}
	p := tree.Move(d)
	if _, err := m.idx.Validate(e.ID, p); err != nil {
		m.setError(err)
		return m, nil
	}
	m.setStatus("moving %s %s%s", e.ID, d, glyphPending())
	return m, m.commitMove(e.ID, p)
}

func (m appModel) setHidden(hidden bool) (tea.Model, tea.Cmd) {
	e, ok := m.selected()
	if !ok {
		return m, nil
	}
	if e.Hidden == hidden {
		return m, nil
	}
	if m.actorID == "" {
		m.setError(errNoActor)
		return m, nil
	}
	return m, m.commitHidden(e.ID, hidden)
}

func (m *appModel) syncPreview() {
	e, ok := m.selected()
	if !ok || m.view != viewThread {
		m.preview.SetContent("")
		return
	}
	m.preview.SetContent(m.renderPreview(e))
	m.preview.GotoTop()
}

func (m appModel) renderPreview(e model.Entry) string {
	w := m.preview.Width
	depth := "?"
	if d, err := m.idx.DepthOf(e.ID); err == nil {
		depth = fmt.Sprint(d)
	}
	meta := fmt.Sprintf("%s  by %s  depth %s  replies %d", e.ID, emptyAsDash(e.AuthorID), depth, len(m.idx.Children(e.ID)))
	lines := []string{
		styleMuted().Render(truncateToWidth(meta, w)),
		styleMuted().Render(strings.Repeat(glyphHRule(), max(w, 1))),
	}
	if e.Hidden {
		lines = append(lines, styleMuted().Render("[hidden]"))
	} else {
		lines = append(lines, renderMarkdown(e.Body, w))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) splitWidths() (int, int) {
	w := m.width
	if w < 40 {
		w = 40
	}
	left := w * 3 / 5
	if left < 30 {
		left = 30
	}
	right := w - left - 1
	if right < 10 {
		right = 10
	}
	return left, right
}

func (m appModel) viewThread() string {
	leftW, _ := m.splitWidths()
	h := m.bodyHeight()

	var lines []string
	if len(m.rows) == 0 {
		lines = append(lines, styleMuted().Render(padOrCut("No entries yet. Press A to add one.", leftW)))
	}
	start := 0
	if m.cursor >= h {
		start = m.cursor - h + 1
	}
	for i := start; i < len(m.rows) && len(lines) < h; i++ {
		lines = append(lines, m.renderRow(i, leftW))
	}
	for len(lines) < h {
		lines = append(lines, strings.Repeat(" ", leftW))
	}
	left := strings.Join(lines, "\n")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", m.preview.View())
}

func (m appModel) renderRow(i, width int) string {
	r := m.rows[i]
	e := r.Entry

	text := firstLine(e.Body)
	if e.Hidden {
		text = "[hidden]"
	}
	lead := strings.Repeat("  ", max(r.Depth-1, 0)) + glyphBullet() + " "
	if m.drag.Active() && e.ID == m.drag.EntryID {
		lead = strings.Repeat("  ", max(r.Depth-1, 0)) + glyphGrab() + " "
	}

	suffix := ""
	if r.Cyclic {
		suffix += " (cycle)"
	}
	if m.drag.IsPending(e.ID) {
		suffix += " " + glyphPending()
	}
	hovered := m.drag.Phase == drag.Hovering && m.drag.Hover.TargetID == e.ID
	if hovered {
		suffix += "  " + positionLabel(m.drag.Hover.Position)
	}

	room := width - xansi.StringWidth(lead) - xansi.StringWidth(suffix)
	line := lead + truncateToWidth(text, room) + suffix

	style := lipgloss.NewStyle()
	switch {
	case hovered:
		style = styleDropTarget()
	case i == m.cursor && !m.drag.Active():
		style = styleSelected()
	case m.drag.Active() && e.ID == m.drag.EntryID:
		style = styleAccent()
	case m.drag.Active() && !m.isDropTarget(e.ID):
		style = styleMuted()
	case e.Hidden:
		style = styleMuted()
	}
	return style.Render(padOrCut(line, width))
}

func positionLabel(p tree.Position) string {
	switch p {
	case tree.Before:
		return glyphBefore() + " before"
	case tree.After:
		return glyphAfter() + " after"
	default:
		return glyphArrow() + " reply"
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// describeError turns store and engine errors into one status line.
func describeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, tree.ErrHasReplies):
		return "entries with replies move with m (pick up), not K/J"
	case errors.Is(err, tree.ErrNoNeighbor):
		return "nothing to move past in that direction"
	case errors.Is(err, tree.ErrTargetNotFound):
		return "drop target is gone; reloaded"
	case errors.Is(err, tree.ErrNotFound):
		return "entry is hidden or gone; reloaded"
	case errors.Is(err, drag.ErrPending):
		return "that entry still has a move in flight"
	case errors.Is(err, store.ErrNotFound):
		return err.Error() + "; reloaded"
	default:
		return err.Error()
	}
}
