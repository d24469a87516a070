package tui

import (
	"errors"

	"replytree/internal/store"
	"replytree/internal/tree"

	tea "github.com/charmbracelet/bubbletea"
)

// Writes run as tea.Cmds so the UI stays responsive while the store holds its write lock.

type moveDoneMsg struct {
	entryID string
	result  store.MoveResult
	err     error
}

type writeDoneMsg struct {
	what     string
	entryID  string
	threadID string
	err      error
}

func (m appModel) commitMove(entryID string, p tree.Proposal) tea.Cmd {
	ctx, st, actor := m.ctx, m.st, m.actorID
	return func() tea.Msg {
		res, err := st.MoveEntry(ctx, actor, entryID, p)
		return moveDoneMsg{entryID: entryID, result: res, err: err}
	}
}

func (m appModel) commitHidden(entryID string, hidden bool) tea.Cmd {
	ctx, st, actor := m.ctx, m.st, m.actorID
	what := "restored"
	if hidden {
		what = "hidden"
	}
	return func() tea.Msg {
		_, err := st.SetEntryHidden(ctx, actor, entryID, hidden)
		return writeDoneMsg{what: what, entryID: entryID, err: err}
	}
}

func (m appModel) commitEntry(parentID, body string) tea.Cmd {
	ctx, st, actor, threadID := m.ctx, m.st, m.actorID, m.thread.ID
	return func() tea.Msg {
		e, err := st.AddEntry(ctx, actor, threadID, parentID, body)
		return writeDoneMsg{what: "added", entryID: e.ID, threadID: threadID, err: err}
	}
}

func (m appModel) commitThread(title string) tea.Cmd {
	ctx, st, actor := m.ctx, m.st, m.actorID
	return func() tea.Msg {
		th, err := st.CreateThread(ctx, actor, title)
		return writeDoneMsg{what: "created", threadID: th.ID, err: err}
	}
}

func (m *appModel) handleMoveDone(msg moveDoneMsg) {
	m.drag = m.drag.Resolve(msg.entryID, msg.err)
	if msg.err != nil {
		m.log.Info("move refused", "entry", msg.entryID, "err", msg.err)
		m.setError(msg.err)
		// The local projection was stale or wrong; refetch either way.
		m.reload()
		return
	}
	m.reload()
	m.selectEntry(msg.entryID)
	m.syncPreview()
	if msg.result.Placement.Unchanged {
		m.setStatus("%s is already there", msg.entryID)
		return
	}
	m.setStatus("moved %s (v%d)", msg.entryID, msg.result.Version)
}

func (m *appModel) handleWriteDone(msg writeDoneMsg) {
	if msg.err != nil {
		m.log.Info("write failed", "what", msg.what, "entry", msg.entryID, "err", msg.err)
		m.setError(msg.err)
		if errors.Is(msg.err, store.ErrNotFound) {
			m.reload()
		}
		return
	}
	m.reload()
	switch {
	case msg.entryID != "":
		m.selectEntry(msg.entryID)
		m.syncPreview()
		m.setStatus("%s %s", msg.what, msg.entryID)
	case msg.threadID != "":
		selectListItemByID(&m.threadsList, msg.threadID)
		m.setStatus("%s thread %s", msg.what, msg.threadID)
	}
}
