package tree

import (
	"sort"

	"replytree/internal/model"
)

// OrderStep is the stride between freshly assigned sibling order indexes.
const OrderStep = 1024.0

// Compare orders two siblings: order index, then CreatedAt, then ID. Unassigned indexes
// (<= 0) sort after every assigned one and fall back to CreatedAt among themselves.
func Compare(a, b model.Entry) int {
	aSet, bSet := a.OrderIndex > 0, b.OrderIndex > 0
	switch {
	case aSet && !bSet:
		return -1
	case !aSet && bSet:
		return 1
	case aSet && bSet:
		if a.OrderIndex < b.OrderIndex {
			return -1
		}
		if a.OrderIndex > b.OrderIndex {
			return 1
		}
	}
	// Equal ranks must still produce a stable ordering, otherwise entries "jump"
	// between renders.
	if a.CreatedAt.Before(b.CreatedAt) {
		return -1
	}
	if a.CreatedAt.After(b.CreatedAt) {
		return 1
	}
	if a.ID < b.ID {
		return -1
	}
	if a.ID > b.ID {
		return 1
	}
	return 0
}

// SortEntries sorts entries in place in sibling order.
func SortEntries(entries []model.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Compare(entries[i], entries[j]) < 0
	})
}

// NextOrderIndex returns the index that appends after the given siblings.
func NextOrderIndex(siblings []model.Entry) float64 {
	max := 0.0
	for _, s := range siblings {
		if s.OrderIndex > max {
			max = s.OrderIndex
		}
	}
	return max + OrderStep
}
