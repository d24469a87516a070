package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"replytree/internal/drag"
	"replytree/internal/logging"
	"replytree/internal/model"
	"replytree/internal/store"
	"replytree/internal/tree"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type view int

const (
	viewThreads view = iota
	viewThread
)

type reloadTickMsg struct{}

type appModel struct {
	ctx     context.Context
	st      *store.Store
	log     *slog.Logger
	actorID string

	width  int
	height int

	view view

	threadsList     list.Model
	currentThreadID string

	thread  model.Thread
	idx     *tree.Index
	rows    []tree.Row
	cursor  int
	preview viewport.Model

	drag        drag.State
	dropTargets []tree.DropTarget
	dropAt      int

	compose       textinput.Model
	composeKind   composeKind
	composeParent string

	keys keyMap
	help help.Model

	lastSeq   int64
	status    string
	statusErr bool
}

func newAppModel(ctx context.Context, st *store.Store, opts Options) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	m := appModel{
		ctx:             ctx,
		st:              st,
		log:             logging.OrDiscard(opts.Log).With("component", "tui"),
		actorID:         strings.TrimSpace(opts.ActorID),
		width:           100,
		height:          30,
		view:            viewThreads,
		currentThreadID: strings.TrimSpace(opts.ThreadID),
		idx:             tree.Build(nil),
		preview:         viewport.New(40, 20),
		compose:         textinput.New(),
		keys:            defaultKeyMap(),
		help:            help.New(),
		dropAt:          -1,
	}
	m.compose.CharLimit = 4000
	m.threadsList = newList("Threads", nil)
	m.refreshThreads()
	m.captureSeq()

	if m.currentThreadID != "" {
		if err := m.openThread(m.currentThreadID); err != nil {
			m.setError(err)
		}
	}
	m.resize()
	return m
}

func (m appModel) Init() tea.Cmd { return tickReload() }

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case reloadTickMsg:
		// Picks up writes from the CLI, the API server or another TUI.
		if m.storeChanged() {
			m.reload()
		}
		return m, tickReload()

	case moveDoneMsg:
		m.handleMoveDone(msg)
		return m, nil

	case writeDoneMsg:
		m.handleWriteDone(msg)
		return m, nil

	case tea.KeyMsg:
		if m.composeKind != composeNone {
			return m.updateCompose(msg)
		}
		if m.view == viewThread {
			return m.updateThread(msg)
		}
		return m.updateThreads(msg)
	}

	if m.composeKind != composeNone {
		var cmd tea.Cmd
		m.compose, cmd = m.compose.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) updateThreads(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While filtering, every key belongs to the list.
	if m.threadsList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.threadsList, cmd = m.threadsList.Update(msg)
		return m, cmd
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Open):
		if it, ok := m.threadsList.SelectedItem().(threadItem); ok {
			if err := m.openThread(it.thread.ID); err != nil {
				m.setError(err)
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.NewTopic):
		return m.startCompose(composeThread, "")
	case key.Matches(msg, m.keys.Reload):
		m.reload()
		return m, nil
	}
	var cmd tea.Cmd
	m.threadsList, cmd = m.threadsList.Update(msg)
	return m, cmd
}

func (m appModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Render(m.headerText())

	var body string
	var helpView string
	switch {
	case m.view == viewThread:
		body = m.viewThread()
	default:
		body = m.threadsList.View()
	}
	switch {
	case m.composeKind != composeNone:
		helpView = m.help.View(composeHelp{})
	case m.view == viewThread && m.drag.Active():
		helpView = m.help.View(dragHelp{m.keys})
	case m.view == viewThread:
		helpView = m.help.View(threadHelp{m.keys})
	default:
		helpView = m.help.View(threadsHelp{m.keys})
	}

	parts := []string{header, body, m.statusLine()}
	if m.composeKind != composeNone {
		parts = append(parts, m.composeLine())
	}
	parts = append(parts, helpView)
	return strings.Join(parts, "\n")
}

func (m appModel) headerText() string {
	actor := emptyAsDash(m.actorID)
	if m.view == viewThread {
		return fmt.Sprintf("replytree  %s  v%d  actor=%s", m.thread.Title, m.thread.Version, actor)
	}
	return fmt.Sprintf("replytree  %s  actor=%s", m.st.Dir, actor)
}

func (m appModel) statusLine() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return styleError().Render(m.status)
	}
	return styleMuted().Render(m.status)
}

// bodyHeight is what is left after the header, status, help and compose lines.
func (m appModel) bodyHeight() int {
	h := m.height - 4
	if m.composeKind != composeNone {
		h--
	}
	if h < 5 {
		h = 5
	}
	return h
}

func (m *appModel) resize() {
	w := m.width
	if w < 40 {
		w = 40
	}
	m.threadsList.SetSize(w, m.bodyHeight())
	_, rightW := m.splitWidths()
	m.preview.Width = rightW
	m.preview.Height = m.bodyHeight()
	m.compose.Width = w - 12
	m.syncPreview()
}

func (m *appModel) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *appModel) setError(err error) {
	m.status = describeError(err)
	m.statusErr = true
}

func (m *appModel) refreshThreads() {
	curID := ""
	if it, ok := m.threadsList.SelectedItem().(threadItem); ok {
		curID = it.thread.ID
	}
	ths, err := m.st.ListThreads(m.ctx, false)
	if err != nil {
		m.setError(err)
		return
	}
	items := make([]list.Item, 0, len(ths))
	for _, th := range ths {
		items = append(items, threadItem{thread: th, current: th.ID == m.currentThreadID})
	}
	m.threadsList.SetItems(items)
	if curID != "" {
		selectListItemByID(&m.threadsList, curID)
	}
}

func tickReload() tea.Cmd {
	return tea.Tick(750*time.Millisecond, func(time.Time) tea.Msg { return reloadTickMsg{} })
}

func (m *appModel) captureSeq() {
	if seq, err := m.st.LatestEventSeq(m.ctx); err == nil {
		m.lastSeq = seq
	}
}

func (m *appModel) storeChanged() bool {
	seq, err := m.st.LatestEventSeq(m.ctx)
	return err == nil && seq != m.lastSeq
}

// reload re-reads the thread list and the open thread, keeping selections by id.
func (m *appModel) reload() {
	m.captureSeq()
	m.refreshThreads()
	if m.view == viewThread && m.thread.ID != "" {
		if err := m.loadThread(m.thread.ID); err != nil {
			m.setError(err)
		}
	}
}

func emptyAsDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
