package tree

import (
	"sort"

	"replytree/internal/model"
)

type Row struct {
	Entry       model.Entry `json:"entry" yaml:"entry"`
	Depth       int         `json:"depth" yaml:"depth"`
	HasChildren bool        `json:"hasChildren" yaml:"hasChildren"`

	// Cyclic marks entries whose parent chain never reaches a root. They are rendered as
	// best-effort roots.
	Cyclic bool `json:"cyclic,omitempty" yaml:"cyclic,omitempty"`
}

// Rows returns the render order: a pre-order walk from the ordered roots, followed by every
// entry the walk could not reach (broken or cyclic parent chains), each visited exactly once.
func (x *Index) Rows() []Row {
	out := make([]Row, 0, len(x.entries))
	visited := make([]bool, len(x.entries))

	var walk func(i, depth int)
	walk = func(i, depth int) {
		if visited[i] {
			return
		}
		visited[i] = true
		cyclic := x.depth[i] == unresolved
		if cyclic {
			// Same depth DepthMap reports.
			depth = 1
		}
		out = append(out, Row{
			Entry:       x.entries[i],
			Depth:       depth,
			HasChildren: len(x.children[i]) > 0,
			Cyclic:      cyclic,
		})
		for _, c := range x.children[i] {
			walk(c, depth+1)
		}
	}
	for _, r := range x.roots {
		walk(r, 1)
	}

	if len(out) == len(x.entries) {
		return out
	}
	var rest []int
	for i := range x.entries {
		if !visited[i] {
			rest = append(rest, i)
		}
	}
	sort.SliceStable(rest, func(a, b int) bool {
		return Compare(x.entries[rest[a]], x.entries[rest[b]]) < 0
	})
	for _, i := range rest {
		walk(i, 1)
	}
	return out
}

// Linearize returns the entries in render order.
func (x *Index) Linearize() []model.Entry {
	rows := x.Rows()
	out := make([]model.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Entry)
	}
	return out
}

// Linearize builds an index over entries and returns them in render order.
func Linearize(entries []model.Entry) []model.Entry {
	return Build(entries).Linearize()
}

// DepthMap returns the depth of every entry. Entries on a broken chain report depth 1, the
// same place the linearizer renders them.
func DepthMap(entries []model.Entry) map[string]int {
	x := Build(entries)
	out := make(map[string]int, x.Len())
	for i, e := range x.entries {
		d := x.depth[i]
		if d == unresolved {
			d = 1
		}
		out[e.ID] = d
	}
	return out
}

// CyclicIDs returns the ids whose parent chain never reaches a root, in input order.
func (x *Index) CyclicIDs() []string {
	var out []string
	for i, e := range x.entries {
		if x.depth[i] == unresolved {
			out = append(out, e.ID)
		}
	}
	return out
}
