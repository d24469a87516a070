package tree

import (
	"testing"

	"replytree/internal/model"
)

func TestAudit_CleanThread(t *testing.T) {
	t.Parallel()

	rep := Audit(sampleThread())
	if len(rep.Issues) != 0 || rep.HasErrors() {
		t.Fatalf("expected a clean report, got %+v", rep.Issues)
	}
	if rep.Entries != 8 {
		t.Fatalf("entries: got %d want 8", rep.Entries)
	}
}

func TestAudit_FindsProblems(t *testing.T) {
	t.Parallel()

	entries := []model.Entry{
		mk("r", "", 1024, 0),
		mk("d2", "r", 1024, 1),
		mk("d3", "d2", 1024, 2),
		mk("d4", "d3", 1024, 3),
		mk("A", "B", 1024, 4),
		mk("B", "A", 1024, 5),
		mk("orphan", "gone", 2048, 6),
		mk("legacy", "", 0, 7),
		mk("twin", "r", 1024, 8),
		mk("r", "", 9999, 9),
	}
	rep := Audit(entries)
	if !rep.HasErrors() {
		t.Fatalf("expected errors")
	}

	codes := map[string]string{}
	for _, it := range rep.Issues {
		codes[it.Code+":"+it.EntryID] = string(it.Level)
	}
	for _, want := range []string{
		"depth_exceeded:d4",
		"cycle:A",
		"cycle:B",
		"orphan:orphan",
		"order_unassigned:legacy",
		"order_collision:twin",
		"duplicate_id:r",
	} {
		if _, ok := codes[want]; !ok {
			t.Fatalf("missing issue %s in %v", want, codes)
		}
	}
	if rep.Issues[0].Level != IssueError {
		t.Fatalf("errors should be listed first: %+v", rep.Issues[0])
	}
}

func TestRenumberAll(t *testing.T) {
	t.Parallel()

	entries := []model.Entry{
		mk("r1", "", 10, 0),
		mk("r2", "", 0, 1),
		mk("a", "r1", 1024, 2),
		mk("b", "r1", 1024, 3),
	}
	got := RenumberAll(entries)
	want := map[string]float64{"r1": 1024, "r2": 2048, "b": 2048}
	if len(got) != len(want) {
		t.Fatalf("RenumberAll: got %v want %v", got, want)
	}
	for id, v := range want {
		if got[id] != v {
			t.Fatalf("RenumberAll[%s]: got %v want %v", id, got[id], v)
		}
	}
}
