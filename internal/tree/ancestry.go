package tree

// resolveDepths fills the depth side array. Each walk follows parent pointers until it meets
// a root or an already resolved entry; a walk longer than the entry count can only be a
// cycle, and every entry on it is marked unresolved.
func (x *Index) resolveDepths() {
	n := len(x.entries)
	x.depth = make([]int, n)
	path := make([]int, 0, 8)
	for i := 0; i < n; i++ {
		if x.depth[i] != 0 {
			continue
		}
		path = path[:0]
		cur := i
		base := 0
		for {
			if d := x.depth[cur]; d != 0 {
				base = d
				break
			}
			path = append(path, cur)
			if len(path) > n {
				base = unresolved
				break
			}
			p := x.parent[cur]
			if p == noParent {
				break
			}
			cur = p
		}
		for k := len(path) - 1; k >= 0; k-- {
			if base == unresolved {
				x.depth[path[k]] = unresolved
				continue
			}
			base++
			x.depth[path[k]] = base
		}
	}
}

// resolveHeights fills the subtree height side array. Entries that reach themselves through
// their children are unresolved.
func (x *Index) resolveHeights() {
	const (
		unvisited = iota
		visiting
		done
	)
	n := len(x.entries)
	x.height = make([]int, n)
	state := make([]uint8, n)

	var visit func(i int) int
	visit = func(i int) int {
		switch state[i] {
		case done:
			return x.height[i]
		case visiting:
			return unresolved
		}
		state[i] = visiting
		h := 1
		for _, c := range x.children[i] {
			ch := visit(c)
			if ch == unresolved || h == unresolved {
				h = unresolved
				continue
			}
			if ch+1 > h {
				h = ch + 1
			}
		}
		state[i] = done
		x.height[i] = h
		return h
	}
	for i := 0; i < n; i++ {
		visit(i)
	}
}

// DepthOf returns 1 + the number of ancestors of id. The value comes from a parent walk bounded
// by the entry count; walks that exceed it report ErrCycleDetected.
func (x *Index) DepthOf(id string) (int, error) {
	i, ok := x.lookup(id)
	if !ok {
		return 0, NotFoundError{Kind: "entry", ID: id}
	}
	return x.depthAt(i)
}

func (x *Index) depthAt(i int) (int, error) {
	if i == noParent {
		return 0, nil
	}
	d := x.depth[i]
	if d == unresolved {
		return 0, CycleError{ID: x.entries[i].ID}
	}
	return d, nil
}

// SubtreeHeight returns the longest chain below id, counting id itself as 1.
func (x *Index) SubtreeHeight(id string) (int, error) {
	i, ok := x.lookup(id)
	if !ok {
		return 0, NotFoundError{Kind: "entry", ID: id}
	}
	return x.heightAt(i)
}

func (x *Index) heightAt(i int) (int, error) {
	h := x.height[i]
	if h == unresolved {
		return 0, CycleError{ID: x.entries[i].ID}
	}
	return h, nil
}

// IsAncestor reports whether walking up from id reaches candidate before reaching a root.
// An entry is not its own ancestor.
func (x *Index) IsAncestor(candidate, id string) bool {
	c, ok := x.lookup(candidate)
	if !ok {
		return false
	}
	i, ok := x.lookup(id)
	if !ok {
		return false
	}
	return x.isAncestorAt(c, i)
}

func (x *Index) isAncestorAt(c, i int) bool {
	cur := x.parent[i]
	for hops := 0; cur != noParent && hops <= len(x.entries); hops++ {
		if cur == c {
			return true
		}
		cur = x.parent[cur]
	}
	return false
}

// RootOf returns the id reached by walking parent pointers to exhaustion.
func (x *Index) RootOf(id string) (string, error) {
	i, ok := x.lookup(id)
	if !ok {
		return "", NotFoundError{Kind: "entry", ID: id}
	}
	cur := i
	for hops := 0; ; hops++ {
		if hops > len(x.entries) {
			return "", CycleError{ID: x.entries[i].ID}
		}
		p := x.parent[cur]
		if p == noParent {
			return x.entries[cur].ID, nil
		}
		cur = p
	}
}

// Descendants returns the ids below id in pre-order. It never includes id itself, even when
// the data is cyclic.
func (x *Index) Descendants(id string) []string {
	i, ok := x.lookup(id)
	if !ok {
		return nil
	}
	seen := map[int]bool{i: true}
	var out []string
	var walk func(p int)
	walk = func(p int) {
		for _, c := range x.children[p] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, x.entries[c].ID)
			walk(c)
		}
	}
	walk(i)
	return out
}
