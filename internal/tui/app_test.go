package tui

import (
	"context"
	"testing"

	"replytree/internal/drag"
	"replytree/internal/logging"
	"replytree/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

const testActor = "act-tui"

type fixture struct {
	st     *store.Store
	thread string
	ids    map[string]string
}

// newFixture seeds r1 > (a, b) and r2.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, t.TempDir(), logging.Discard())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	th, err := st.CreateThread(ctx, testActor, "Design review")
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	f := &fixture{st: st, thread: th.ID, ids: map[string]string{}}
	add := func(name, parent, body string) {
		e, err := st.AddEntry(ctx, testActor, th.ID, f.ids[parent], body)
		if err != nil {
			t.Fatalf("AddEntry(%s): %v", name, err)
		}
		f.ids[name] = e.ID
	}
	add("r1", "", "first root")
	add("a", "r1", "reply a")
	add("b", "r1", "reply b")
	add("r2", "", "second root")
	return f
}

func (f *fixture) model(t *testing.T, actor string) appModel {
	t.Helper()
	m := newAppModel(context.Background(), f.st, Options{ThreadID: f.thread, ActorID: actor})
	if m.view != viewThread {
		t.Fatalf("expected the thread view, status=%q", m.status)
	}
	return m
}

func (f *fixture) order(m appModel) []string {
	names := map[string]string{}
	for k, v := range f.ids {
		names[v] = k
	}
	out := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		if n, ok := names[r.Entry.ID]; ok {
			out = append(out, n)
		} else {
			out = append(out, r.Entry.ID)
		}
	}
	return out
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(t *testing.T, m appModel, k string) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(keyMsg(k))
	am, ok := next.(appModel)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return am, cmd
}

// settle runs a write command and feeds its result back, as the program loop would.
func settle(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(appModel)
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOpenThreadShowsRowsInRenderOrder(t *testing.T) {
	f := newFixture(t)
	m := f.model(t, testActor)
	if got, want := f.order(m), []string{"r1", "a", "b", "r2"}; !equalNames(got, want) {
		t.Fatalf("rows: got %v want %v", got, want)
	}
	if out := m.View(); out == "" {
		t.Fatalf("expected a rendered view")
	}
}

func TestMoveUpCommitsThroughTheStore(t *testing.T) {
	f := newFixture(t)
	m := f.model(t, testActor)
	m.selectEntry(f.ids["b"])

	m, cmd := press(t, m, "K")
	m = settle(t, m, cmd)
	if m.statusErr {
		t.Fatalf("unexpected error: %s", m.status)
	}
	if got, want := f.order(m), []string{"r1", "b", "a", "r2"}; !equalNames(got, want) {
		t.Fatalf("rows: got %v want %v", got, want)
	}
	if e, _ := m.selected(); e.ID != f.ids["b"] {
		t.Fatalf("cursor should follow the moved entry, got %s", e.ID)
	}
}

func TestMoveUpRefusesEntryWithReplies(t *testing.T) {
	f := newFixture(t)
	m := f.model(t, testActor)
	m.selectEntry(f.ids["r1"])

	m, cmd := press(t, m, "J")
	if cmd != nil {
		t.Fatalf("expected no command for a refused move")
	}
	if !m.statusErr {
		t.Fatalf("expected an error status, got %q", m.status)
	}
}

func TestMoveNeedsActor(t *testing.T) {
	f := newFixture(t)
	m := f.model(t, "")
	m.selectEntry(f.ids["b"])

	m, cmd := press(t, m, "K")
	if cmd != nil || !m.statusErr {
		t.Fatalf("expected a refusal without an actor (status %q)", m.status)
	}
}

func TestDragAndDropBeforeFirstRoot(t *testing.T) {
	f := newFixture(t)
	m := f.model(t, testActor)
	m.selectEntry(f.ids["r2"])

	m, _ = press(t, m, "m")
	if m.drag.Phase != drag.Dragging {
		t.Fatalf("expected Dragging, got %s", m.drag.Phase)
	}
	m, _ = press(t, m, "j")
	if m.drag.Phase != drag.Hovering || m.drag.Hover.TargetID != f.ids["r1"] {
		t.Fatalf("expected to hover r1, got %+v", m.drag)
	}
	m, cmd := press(t, m, "enter")
	if m.drag.Phase != drag.Finalizing || !m.drag.IsPending(f.ids["r2"]) {
		t.Fatalf("expected a pending drop, got %+v", m.drag)
	}
	m = settle(t, m, cmd)
	if m.drag.Phase != drag.Idle || m.drag.Err != nil {
		t.Fatalf("expected the drag to resolve cleanly, got %+v", m.drag)
	}
	if got, want := f.order(m), []string{"r2", "r1", "a", "b"}; !equalNames(got, want) {
		t.Fatalf("rows: got %v want %v", got, want)
	}
}

func TestDragCycleAndCancel(t *testing.T) {
	f := newFixture(t)
	m := f.model(t, testActor)
	m.selectEntry(f.ids["r2"])

	m, _ = press(t, m, "m")
	m, _ = press(t, m, "j")
	first := m.drag.Hover.Position
	m, _ = press(t, m, "tab")
	if m.drag.Hover.Position == first {
		t.Fatalf("tab should change the drop position (still %s)", first)
	}
	m, cmd := press(t, m, "esc")
	if cmd != nil {
		t.Fatalf("cancel must not write")
	}
	if m.drag.Active() || len(m.dropTargets) != 0 {
		t.Fatalf("expected the drag to end, got %+v", m.drag)
	}
	if got, want := f.order(m), []string{"r1", "a", "b", "r2"}; !equalNames(got, want) {
		t.Fatalf("rows: got %v want %v", got, want)
	}
}

func TestReplyComposeAddsEntry(t *testing.T) {
	f := newFixture(t)
	m := f.model(t, testActor)
	m.selectEntry(f.ids["r2"])

	m, _ = press(t, m, "a")
	if m.composeKind != composeReply {
		t.Fatalf("expected reply compose, got %v", m.composeKind)
	}
	m, _ = press(t, m, "hello")
	m, cmd := press(t, m, "enter")
	if m.composeKind != composeNone {
		t.Fatalf("compose should close on enter")
	}
	m = settle(t, m, cmd)
	if m.statusErr {
		t.Fatalf("unexpected error: %s", m.status)
	}
	kids := m.idx.Children(f.ids["r2"])
	if len(kids) != 1 || kids[0].Body != "hello" {
		t.Fatalf("expected one reply under r2, got %+v", kids)
	}
}

func TestEmptyComposeIsDiscarded(t *testing.T) {
	f := newFixture(t)
	m := f.model(t, testActor)

	m, _ = press(t, m, "A")
	m, cmd := press(t, m, "enter")
	if cmd != nil || m.composeKind != composeNone {
		t.Fatalf("an empty body should not write")
	}
	if len(m.rows) != 4 {
		t.Fatalf("rows changed: %d", len(m.rows))
	}
}

func TestHideKeepsRowAsTombstone(t *testing.T) {
	f := newFixture(t)
	m := f.model(t, testActor)
	m.selectEntry(f.ids["r1"])

	m, cmd := press(t, m, "x")
	m = settle(t, m, cmd)
	e, ok := m.idx.Entry(f.ids["r1"])
	if !ok || !e.Hidden {
		t.Fatalf("expected r1 hidden, got %+v", e)
	}
	if got, want := f.order(m), []string{"r1", "a", "b", "r2"}; !equalNames(got, want) {
		t.Fatalf("replies of a hidden entry stay in place: got %v", got)
	}
}

func TestNewThreadFromThreadList(t *testing.T) {
	f := newFixture(t)
	m := newAppModel(context.Background(), f.st, Options{ActorID: testActor})

	m, _ = press(t, m, "n")
	m, _ = press(t, m, "Roadmap")
	m, cmd := press(t, m, "enter")
	m = settle(t, m, cmd)
	if m.statusErr {
		t.Fatalf("unexpected error: %s", m.status)
	}
	ths, err := f.st.ListThreads(context.Background(), false)
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if len(ths) != 2 || len(m.threadsList.Items()) != 2 {
		t.Fatalf("expected two threads, got %d (list %d)", len(ths), len(m.threadsList.Items()))
	}
}

func TestReloadPicksUpOutsideWrites(t *testing.T) {
	f := newFixture(t)
	m := f.model(t, testActor)

	if _, err := f.st.AddEntry(context.Background(), "act-cli", f.thread, "", "from the cli"); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	next, _ := m.Update(reloadTickMsg{})
	m = next.(appModel)
	if len(m.rows) != 5 {
		t.Fatalf("expected the new entry after a reload tick, got %d rows", len(m.rows))
	}
}
