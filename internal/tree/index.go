// Package tree is the reply-tree engine: it indexes one thread's entries, resolves depth and
// ancestry, linearizes the forest into render order, and validates and places moves.
//
// An Index is immutable once built. Callers rebuild it from the flat entry list on every
// refresh instead of mutating it.
package tree

import (
	"sort"
	"strings"

	"replytree/internal/model"
)

// MaxDepth is the deepest level an entry may occupy. Roots are depth 1.
const MaxDepth = 3

const (
	noParent = -1

	// Side-array marker for entries whose parent walk never reaches a root.
	unresolved = -1
)

type Index struct {
	entries  []model.Entry
	byID     map[string]int
	parent   []int
	children [][]int
	roots    []int

	depth  []int
	height []int
}

// Build indexes entries. Duplicate ids keep their first occurrence. Entries whose parent is
// missing from the list are roots, so a partially loaded thread still renders.
func Build(entries []model.Entry) *Index {
	x := &Index{
		entries: make([]model.Entry, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if _, dup := x.byID[e.ID]; dup {
			continue
		}
		x.byID[e.ID] = len(x.entries)
		x.entries = append(x.entries, e)
	}

	n := len(x.entries)
	x.parent = make([]int, n)
	x.children = make([][]int, n)
	for i, e := range x.entries {
		pid := strings.TrimSpace(e.ParentID())
		p, ok := x.byID[pid]
		switch {
		case pid == "" || !ok:
			x.parent[i] = noParent
			x.roots = append(x.roots, i)
		case p == i:
			// Self-parented: never a root, never anyone's child. Resolved as a cycle.
			x.parent[i] = i
		default:
			x.parent[i] = p
			x.children[p] = append(x.children[p], i)
		}
	}

	x.sortGroup(x.roots)
	for i := range x.children {
		x.sortGroup(x.children[i])
	}

	x.resolveDepths()
	x.resolveHeights()
	return x
}

func (x *Index) sortGroup(group []int) {
	sort.SliceStable(group, func(a, b int) bool {
		return Compare(x.entries[group[a]], x.entries[group[b]]) < 0
	})
}

func (x *Index) Len() int { return len(x.entries) }

func (x *Index) lookup(id string) (int, bool) {
	i, ok := x.byID[strings.TrimSpace(id)]
	return i, ok
}

func (x *Index) Has(id string) bool {
	_, ok := x.lookup(id)
	return ok
}

func (x *Index) Entry(id string) (model.Entry, bool) {
	i, ok := x.lookup(id)
	if !ok {
		return model.Entry{}, false
	}
	return x.entries[i], true
}

// Entries returns the indexed entries in input order (duplicates removed).
func (x *Index) Entries() []model.Entry {
	return append([]model.Entry(nil), x.entries...)
}

func (x *Index) Roots() []model.Entry {
	return x.collect(x.roots)
}

func (x *Index) Children(id string) []model.Entry {
	i, ok := x.lookup(id)
	if !ok {
		return nil
	}
	return x.collect(x.children[i])
}

func (x *Index) HasChildren(id string) bool {
	i, ok := x.lookup(id)
	return ok && len(x.children[i]) > 0
}

// Parent returns the effective parent: false for roots, including orphans whose recorded
// parent is not in the index.
func (x *Index) Parent(id string) (model.Entry, bool) {
	i, ok := x.lookup(id)
	if !ok {
		return model.Entry{}, false
	}
	p := x.parent[i]
	if p == noParent || p == i {
		return model.Entry{}, false
	}
	return x.entries[p], true
}

// Siblings returns the ordered group the entry belongs to, including the entry itself.
func (x *Index) Siblings(id string) []model.Entry {
	i, ok := x.lookup(id)
	if !ok {
		return nil
	}
	if x.parent[i] == i {
		return []model.Entry{x.entries[i]}
	}
	return x.collect(x.group(x.parent[i]))
}

// group returns the ordered sibling group below parent p (noParent for roots).
func (x *Index) group(p int) []int {
	if p == noParent {
		return x.roots
	}
	if p < 0 || p >= len(x.children) {
		return nil
	}
	return x.children[p]
}

func (x *Index) collect(idxs []int) []model.Entry {
	out := make([]model.Entry, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, x.entries[i])
	}
	return out
}
