package tree

import (
	"errors"
	"math/rand"
	"testing"

	"replytree/internal/model"
)

func TestAssign_RenumbersWhenBracketsCollide(t *testing.T) {
	t.Parallel()

	entries := []model.Entry{
		mk("P", "", 1024, 0),
		mk("A", "P", 1024, 1),
		mk("B", "P", 1024, 2),
		mk("X", "", 2048, 3),
	}
	pl, err := ApplyMove(entries, "X", MoveTo("B", Before))
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if !pl.UsedRenumber {
		t.Fatalf("expected a renumber")
	}
	if pl.OrderIndex != 2048 {
		t.Fatalf("X orderIndex: got %v want 2048", pl.OrderIndex)
	}
	if len(pl.Renumbered) != 1 || pl.Renumbered["B"] != 3072 {
		t.Fatalf("renumbered: got %v want map[B:3072]", pl.Renumbered)
	}

	next, err := Project(entries, pl)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if got := ids(Build(next).Children("P")); !sameIDs(got, []string{"A", "X", "B"}) {
		t.Fatalf("children after move: got %v want [A X B]", got)
	}
}

func TestAssign_UnassignedSiblingForcesRenumber(t *testing.T) {
	t.Parallel()

	entries := []model.Entry{
		mk("P", "", 1024, 0),
		mk("A", "P", 0, 1),
		mk("B", "P", 0, 2),
		mk("X", "", 2048, 3),
	}
	pl, err := ApplyMove(entries, "X", MoveTo("P", Child))
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if !pl.UsedRenumber || pl.OrderIndex != 3072 {
		t.Fatalf("got %+v want renumber with X at 3072", pl)
	}
	if pl.Renumbered["A"] != 1024 || pl.Renumbered["B"] != 2048 {
		t.Fatalf("renumbered: got %v", pl.Renumbered)
	}
}

func TestAssign_SameSlotIsUnchanged(t *testing.T) {
	t.Parallel()

	entries := sampleThread()
	pl, err := ApplyMove(entries, "b", MoveTo("a", After))
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if !pl.Unchanged || pl.OrderIndex != 2048 {
		t.Fatalf("expected unchanged placement at 2048, got %+v", pl)
	}
	if pl.ParentEntryID == nil || *pl.ParentEntryID != "r1" {
		t.Fatalf("parent should stay r1, got %v", pl.ParentEntryID)
	}
}

func TestAssign_MidpointKeepsOtherSiblings(t *testing.T) {
	t.Parallel()

	entries := sampleThread()
	pl, err := ApplyMove(entries, "d", MoveTo("r2", After))
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if pl.UsedRenumber || len(pl.Renumbered) != 0 {
		t.Fatalf("expected no renumber, got %+v", pl)
	}
	if pl.ParentEntryID != nil || pl.OrderIndex != 2560 {
		t.Fatalf("got %+v want root at 2560", pl)
	}
	next, _ := Project(entries, pl)
	got := ids(Linearize(next))
	want := []string{"r1", "a", "b", "b1", "c", "r2", "d", "r3"}
	if !sameIDs(got, want) {
		t.Fatalf("Linearize after move: got %v want %v", got, want)
	}
}

func TestProject_UnknownEntry(t *testing.T) {
	t.Parallel()

	if _, err := Project(sampleThread(), Placement{EntryID: "zzz"}); err == nil {
		t.Fatalf("expected an error for an unknown entry")
	}
}

// Every accepted move keeps the thread within MaxDepth and puts the entry where the plan said.
func TestApplyMove_RandomMovesRespectDepthLimit(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	positions := []Position{Before, After, Child}
	directions := []Direction{Up, Down}

	for round := 0; round < 40; round++ {
		entries := randomForest(rng, 15)
		for step := 0; step < 25; step++ {
			e := entries[rng.Intn(len(entries))].ID
			var p Proposal
			if rng.Intn(3) == 0 {
				p = Move(directions[rng.Intn(2)])
			} else {
				p = MoveTo(entries[rng.Intn(len(entries))].ID, positions[rng.Intn(3)])
			}

			x := Build(entries)
			plan, err := x.Validate(e, p)
			if err != nil {
				if !IsRefusal(err) {
					t.Fatalf("round %d: unexpected error for %s %s: %v", round, e, p, err)
				}
				continue
			}
			pl, err := x.Assign(plan)
			if err != nil {
				t.Fatalf("round %d: Assign: %v", round, err)
			}
			next, err := Project(entries, pl)
			if err != nil {
				t.Fatalf("round %d: Project: %v", round, err)
			}

			nx := Build(next)
			for _, ne := range next {
				d, err := nx.DepthOf(ne.ID)
				if err != nil {
					t.Fatalf("round %d: %s %s introduced %v", round, e, p, err)
				}
				if d > MaxDepth {
					t.Fatalf("round %d: %s %s left %s at depth %d", round, e, p, ne.ID, d)
				}
			}
			if got := mustDepth(t, nx, e); got != plan.Depth {
				t.Fatalf("round %d: %s %s depth %d want %d", round, e, p, got, plan.Depth)
			}
			group := nx.Siblings(e)
			if k := indexOf(idxs(nx, group), nx.byID[e]); k != plan.InsertAt {
				t.Fatalf("round %d: %s %s landed at %d want %d (%v)", round, e, p, k, plan.InsertAt, ids(group))
			}
			entries = next
		}
	}
}

func TestIsMoveLegal_MatchesValidate(t *testing.T) {
	t.Parallel()

	entries := sampleThread()
	if !IsMoveLegal(entries, "d", MoveTo("a", Child)) {
		t.Fatalf("d under a should be legal")
	}
	if IsMoveLegal(entries, "r3", MoveTo("b", Child)) {
		t.Fatalf("r3 under b should exceed the depth limit")
	}
	_, err := ApplyMove(entries, "r3", MoveTo("b", Child))
	if !errors.Is(err, ErrDepthLimitExceeded) {
		t.Fatalf("expected ErrDepthLimitExceeded, got %v", err)
	}
}

func idxs(x *Index, entries []model.Entry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, x.byID[e.ID])
	}
	return out
}
