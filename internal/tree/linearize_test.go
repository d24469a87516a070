package tree

import (
	"math/rand"
	"testing"

	"replytree/internal/model"
)

func TestLinearize_PreOrder(t *testing.T) {
	t.Parallel()

	got := ids(Linearize(sampleThread()))
	want := []string{"r1", "a", "b", "b1", "c", "r2", "r3", "d"}
	if !sameIDs(got, want) {
		t.Fatalf("Linearize: got %v want %v", got, want)
	}
}

func TestRows_DepthAndChildren(t *testing.T) {
	t.Parallel()

	rows := Build(sampleThread()).Rows()
	wantDepth := map[string]int{"r1": 1, "a": 2, "b": 2, "b1": 3, "c": 2, "r2": 1, "r3": 1, "d": 2}
	for _, r := range rows {
		if r.Depth != wantDepth[r.Entry.ID] {
			t.Fatalf("row %s depth: got %d want %d", r.Entry.ID, r.Depth, wantDepth[r.Entry.ID])
		}
		wantKids := r.Entry.ID == "r1" || r.Entry.ID == "b" || r.Entry.ID == "r3"
		if r.HasChildren != wantKids {
			t.Fatalf("row %s HasChildren: got %v", r.Entry.ID, r.HasChildren)
		}
	}
}

func TestLinearize_CyclesAndOrphansVisitedOnce(t *testing.T) {
	t.Parallel()

	entries := []model.Entry{
		mk("root", "", 1024, 0),
		mk("A", "B", 1024, 1),
		mk("B", "A", 1024, 2),
		mk("under-cycle", "B", 1024, 3),
		mk("orphan", "gone", 2048, 4),
		mk("self", "self", 1024, 5),
	}
	rows := Build(entries).Rows()
	if len(rows) != len(entries) {
		t.Fatalf("rows: got %d want %d (%v)", len(rows), len(entries), rowIDs(rows))
	}
	seen := map[string]int{}
	for _, r := range rows {
		seen[r.Entry.ID]++
	}
	for _, e := range entries {
		if seen[e.ID] != 1 {
			t.Fatalf("entry %s visited %d times", e.ID, seen[e.ID])
		}
	}
	// Roots (including the orphan) come first, in sibling order.
	if rows[0].Entry.ID != "root" || rows[1].Entry.ID != "orphan" {
		t.Fatalf("expected roots first, got %v", rowIDs(rows))
	}
	dm := DepthMap(entries)
	for _, r := range rows[2:] {
		if !r.Cyclic {
			t.Fatalf("expected %s to be flagged cyclic", r.Entry.ID)
		}
		if r.Depth != 1 || dm[r.Entry.ID] != r.Depth {
			t.Fatalf("row %s: depth %d, DepthMap %d; want both 1", r.Entry.ID, r.Depth, dm[r.Entry.ID])
		}
	}

	if dm["A"] != 1 || dm["self"] != 1 || dm["orphan"] != 1 {
		t.Fatalf("DepthMap should render broken chains at depth 1: %v", dm)
	}
}

func TestLinearize_VisitsEveryEntryExactlyOnce(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	for round := 0; round < 50; round++ {
		entries := randomForest(rng, 20)
		// Corrupt a few parent pointers: dangling ids and back edges.
		for i := range entries {
			switch rng.Intn(10) {
			case 0:
				p := "missing"
				entries[i].ParentEntryID = &p
			case 1:
				p := entries[rng.Intn(len(entries))].ID
				entries[i].ParentEntryID = &p
			}
		}
		got := Linearize(entries)
		if len(got) != len(entries) {
			t.Fatalf("round %d: got %d entries want %d", round, len(got), len(entries))
		}
		seen := map[string]bool{}
		for _, e := range got {
			if seen[e.ID] {
				t.Fatalf("round %d: %s emitted twice", round, e.ID)
			}
			seen[e.ID] = true
		}
	}
}

func rowIDs(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Entry.ID)
	}
	return out
}
