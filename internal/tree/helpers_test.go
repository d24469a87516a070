package tree

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"replytree/internal/model"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// mk builds an entry created sec seconds after t0. parent "" makes a root.
func mk(id, parent string, order float64, sec int) model.Entry {
	e := model.Entry{
		ID:         id,
		ThreadID:   "thr-test",
		OrderIndex: order,
		Body:       id,
		CreatedAt:  t0.Add(time.Duration(sec) * time.Second),
	}
	if parent != "" {
		p := parent
		e.ParentEntryID = &p
	}
	return e
}

func ids(entries []model.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func sameIDs(a, b []string) bool {
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

func mustDepth(t *testing.T, x *Index, id string) int {
	t.Helper()
	d, err := x.DepthOf(id)
	if err != nil {
		t.Fatalf("DepthOf(%s): %v", id, err)
	}
	return d
}

// sampleThread:
//
//	r1
//	  a
//	  b
//	    b1
//	  c
//	r2
//	r3
//	  d
func sampleThread() []model.Entry {
	return []model.Entry{
		mk("r1", "", 1024, 0),
		mk("a", "r1", 1024, 1),
		mk("b", "r1", 2048, 2),
		mk("b1", "b", 1024, 3),
		mk("c", "r1", 3072, 4),
		mk("r2", "", 2048, 5),
		mk("r3", "", 3072, 6),
		mk("d", "r3", 1024, 7),
	}
}

// randomForest builds n entries that respect MaxDepth, with occasional duplicate order
// indexes so renumbering paths get exercised.
func randomForest(rng *rand.Rand, n int) []model.Entry {
	var out []model.Entry
	depth := map[string]int{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("e%02d", i)
		parent := ""
		if len(out) > 0 && rng.Intn(3) > 0 {
			cand := out[rng.Intn(len(out))]
			if depth[cand.ID] < MaxDepth {
				parent = cand.ID
			}
		}
		order := float64(rng.Intn(4)+1) * OrderStep
		out = append(out, mk(id, parent, order, i))
		depth[id] = depth[parent] + 1
	}
	return out
}
