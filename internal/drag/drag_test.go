package drag

import (
	"errors"
	"testing"
	"time"

	"replytree/internal/model"
	"replytree/internal/tree"
)

func entry(id, parent string, order float64) model.Entry {
	e := model.Entry{ID: id, ThreadID: "thr-1", OrderIndex: order, CreatedAt: time.Unix(0, 0).UTC()}
	if parent != "" {
		p := parent
		e.ParentEntryID = &p
	}
	return e
}

// r1 > a > a1, r2 > b, r3
func fixture() *tree.Index {
	return tree.Build([]model.Entry{
		entry("r1", "", 1024),
		entry("a", "r1", 1024),
		entry("a1", "a", 1024),
		entry("r2", "", 2048),
		entry("b", "r2", 1024),
		entry("r3", "", 3072),
	})
}

func TestDrag_FullCycle(t *testing.T) {
	t.Parallel()

	x := fixture()
	var s State
	s, err := s.Start(x, "b")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Phase != Dragging {
		t.Fatalf("phase: got %v want dragging", s.Phase)
	}

	s, ok := s.HoverOver(x, "r3", tree.Child)
	if !ok || s.Phase != Hovering {
		t.Fatalf("HoverOver r3 child: ok=%v phase=%v", ok, s.Phase)
	}

	s, p, ok := s.Drop()
	if !ok {
		t.Fatalf("Drop: expected a proposal")
	}
	if p.TargetID != "r3" || p.Position != tree.Child {
		t.Fatalf("proposal: got %+v", p)
	}
	if s.Phase != Finalizing || !s.IsPending("b") {
		t.Fatalf("after drop: phase=%v pending=%v", s.Phase, s.Pending)
	}

	s = s.Resolve("b", nil)
	if s.Phase != Idle || s.IsPending("b") || s.Err != nil {
		t.Fatalf("after resolve: %+v", s)
	}
}

func TestDrag_IllegalTargetStaysUnaimed(t *testing.T) {
	t.Parallel()

	x := fixture()
	s, err := State{}.Start(x, "r2")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	// r2 has height 2; under a1 (depth 3) it would reach depth 5.
	s, ok := s.HoverOver(x, "a1", tree.Child)
	if ok || s.Phase != Dragging || s.Hover != (Hover{}) {
		t.Fatalf("illegal hover should leave the drag unaimed: ok=%v %+v", ok, s)
	}
	// Hovering over its own child is self-containment.
	if _, ok := s.HoverOver(x, "b", tree.After); ok {
		t.Fatalf("hover over own descendant should be refused")
	}

	s, p, ok := s.Drop()
	if ok || s.Phase != Idle || p != (tree.Proposal{}) {
		t.Fatalf("unaimed drop should be a no-op: ok=%v phase=%v p=%+v", ok, s.Phase, p)
	}
}

func TestDrag_AimAndCycle(t *testing.T) {
	t.Parallel()

	x := fixture()
	s, _ := State{}.Start(x, "r3")

	s, ok := s.Aim(x, "a")
	if !ok || s.Hover.Position != tree.Before {
		t.Fatalf("Aim a: ok=%v hover=%+v", ok, s.Hover)
	}
	s = s.Cycle(x)
	if s.Hover.Position != tree.After {
		t.Fatalf("Cycle: got %v want after", s.Hover.Position)
	}
	s = s.Cycle(x)
	if s.Hover.Position != tree.Child {
		t.Fatalf("Cycle: got %v want child", s.Hover.Position)
	}
	s = s.Cycle(x)
	if s.Hover.Position != tree.Before {
		t.Fatalf("Cycle should wrap: got %v", s.Hover.Position)
	}

	// a1 sits at depth 3: only before/after are offered.
	s, ok = s.Aim(x, "a1")
	if !ok {
		t.Fatalf("Aim a1 should find before/after")
	}
	for i := 0; i < 3; i++ {
		s = s.Cycle(x)
		if s.Hover.Position == tree.Child {
			t.Fatalf("child must not be offered at depth 3")
		}
	}

	s = s.Leave()
	if s.Phase != Dragging {
		t.Fatalf("Leave: got %v", s.Phase)
	}
	s = s.Cancel()
	if s.Phase != Idle || s.EntryID != "" {
		t.Fatalf("Cancel: got %+v", s)
	}
}

func TestDrag_FinalizingDoesNotBlockOtherEntries(t *testing.T) {
	t.Parallel()

	x := fixture()
	s, _ := State{}.Start(x, "b")
	s, _ = s.HoverOver(x, "r3", tree.After)
	s, _, _ = s.Drop()

	if _, err := s.Start(x, "b"); !errors.Is(err, ErrPending) {
		t.Fatalf("restarting a pending entry: expected ErrPending, got %v", err)
	}

	s, err := s.Start(x, "r3")
	if err != nil {
		t.Fatalf("Start r3 while b is finalizing: %v", err)
	}
	if s.Phase != Dragging || !s.IsPending("b") {
		t.Fatalf("expected a fresh drag with b still pending: %+v", s)
	}
	if _, err := s.Start(x, "r1"); err == nil {
		t.Fatalf("a second concurrent drag should be refused")
	}

	refused := tree.DepthError{EntryID: "b", Depth: 4}
	s = s.Resolve("b", refused)
	if s.Phase != Dragging || s.EntryID != "r3" {
		t.Fatalf("resolving b must not disturb the active drag: %+v", s)
	}
	if s.IsPending("b") || !errors.Is(s.Err, tree.ErrDepthLimitExceeded) {
		t.Fatalf("resolve bookkeeping: %+v", s)
	}
}

func TestDrag_StartRejectsHiddenAndMissing(t *testing.T) {
	t.Parallel()

	hidden := entry("h", "", 4096)
	hidden.Hidden = true
	x := tree.Build([]model.Entry{entry("r", "", 1024), hidden})

	for _, id := range []string{"h", "nope"} {
		if _, err := (State{}).Start(x, id); err == nil {
			t.Fatalf("Start(%s): expected an error", id)
		}
	}
}

func TestPhaseString(t *testing.T) {
	t.Parallel()

	if Finalizing.String() != "finalizing" || Phase(9).String() != "phase(9)" {
		t.Fatalf("unexpected phase names")
	}
}
