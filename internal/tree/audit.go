package tree

import (
	"fmt"
	"sort"

	"replytree/internal/model"
)

type IssueLevel string

const (
	IssueError IssueLevel = "error"
	IssueWarn  IssueLevel = "warn"
)

type Issue struct {
	Level   IssueLevel `json:"level" yaml:"level"`
	Code    string     `json:"code" yaml:"code"`
	EntryID string     `json:"entryId" yaml:"entryId"`
	Message string     `json:"message" yaml:"message"`
}

type Report struct {
	ThreadID string  `json:"threadId,omitempty" yaml:"threadId,omitempty"`
	Entries  int     `json:"entries" yaml:"entries"`
	Issues   []Issue `json:"issues" yaml:"issues"`
}

func (r Report) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == IssueError {
			return true
		}
	}
	return false
}

// Audit reports structural problems in one thread's entries: cycles, entries below
// MaxDepth, dangling parents, duplicate ids, and unassigned or colliding order indexes.
func Audit(entries []model.Entry) Report {
	x := Build(entries)
	rep := Report{Entries: x.Len(), Issues: []Issue{}}

	seen := map[string]bool{}
	for _, e := range entries {
		if seen[e.ID] {
			rep.Issues = append(rep.Issues, Issue{Level: IssueError, Code: "duplicate_id", EntryID: e.ID,
				Message: "entry id appears more than once; the first row wins"})
		}
		seen[e.ID] = true
	}

	for i, e := range x.entries {
		pid := e.ParentID()
		if pid != "" && !x.Has(pid) {
			rep.Issues = append(rep.Issues, Issue{Level: IssueWarn, Code: "orphan", EntryID: e.ID,
				Message: fmt.Sprintf("parent %s is missing; rendered as a root", pid)})
		}
		switch d := x.depth[i]; {
		case d == unresolved:
			rep.Issues = append(rep.Issues, Issue{Level: IssueError, Code: "cycle", EntryID: e.ID,
				Message: "parent chain never reaches a root"})
		case d > MaxDepth:
			rep.Issues = append(rep.Issues, Issue{Level: IssueError, Code: "depth_exceeded", EntryID: e.ID,
				Message: fmt.Sprintf("entry is at depth %d (max %d)", d, MaxDepth)})
		}
		if e.OrderIndex <= 0 {
			rep.Issues = append(rep.Issues, Issue{Level: IssueWarn, Code: "order_unassigned", EntryID: e.ID,
				Message: "order index is unassigned; sibling order falls back to creation time"})
		}
	}

	x.eachGroup(func(group []int) {
		for k := 1; k < len(group); k++ {
			a, b := x.entries[group[k-1]], x.entries[group[k]]
			if a.OrderIndex > 0 && a.OrderIndex == b.OrderIndex {
				rep.Issues = append(rep.Issues, Issue{Level: IssueWarn, Code: "order_collision", EntryID: b.ID,
					Message: fmt.Sprintf("shares order index %v with %s", b.OrderIndex, a.ID)})
			}
		}
	})

	sort.SliceStable(rep.Issues, func(i, j int) bool {
		if rep.Issues[i].Level != rep.Issues[j].Level {
			return rep.Issues[i].Level == IssueError
		}
		return false
	})
	return rep
}

// RenumberAll assigns OrderStep strides to every sibling group in current sibling order and
// returns only the entries whose index changes.
func RenumberAll(entries []model.Entry) map[string]float64 {
	x := Build(entries)
	out := map[string]float64{}
	x.eachGroup(func(group []int) {
		for k, i := range group {
			v := float64(k+1) * OrderStep
			if x.entries[i].OrderIndex != v {
				out[x.entries[i].ID] = v
			}
		}
	})
	return out
}

// eachGroup calls fn for the root group and every non-empty child group.
func (x *Index) eachGroup(fn func(group []int)) {
	if len(x.roots) > 0 {
		fn(x.roots)
	}
	for i := range x.entries {
		if len(x.children[i]) > 0 {
			fn(x.children[i])
		}
	}
}
