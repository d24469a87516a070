package tree

import (
	"errors"
	"strings"

	"replytree/internal/model"
)

// Placement is the persisted outcome of a move. Renumbered lists the other siblings whose
// order index changes; it is only set when the destination group had to be renumbered.
type Placement struct {
	EntryID       string             `json:"entryId" yaml:"entryId"`
	ParentEntryID *string            `json:"parentEntryId" yaml:"parentEntryId"`
	OrderIndex    float64            `json:"orderIndex" yaml:"orderIndex"`
	Renumbered    map[string]float64 `json:"renumbered,omitempty" yaml:"renumbered,omitempty"`
	UsedRenumber  bool               `json:"usedRenumber,omitempty" yaml:"usedRenumber,omitempty"`
	Unchanged     bool               `json:"unchanged,omitempty" yaml:"unchanged,omitempty"`
}

// Assign computes the order index that puts the planned entry at plan.InsertAt among its new
// siblings. Only the moved entry's parent pointer changes; its descendants follow it.
//
// The fast path takes the midpoint of the two bracketing siblings (or one OrderStep past an
// open end). When the brackets leave no room, or any sibling in the group is unassigned, the
// whole group is renumbered with OrderStep strides.
func (x *Index) Assign(plan Plan) (Placement, error) {
	e, ok := x.lookup(plan.EntryID)
	if !ok {
		return Placement{}, NotFoundError{Kind: "entry", ID: plan.EntryID}
	}
	parent := noParent
	if pid := strings.TrimSpace(plan.ParentID); pid != "" {
		p, ok := x.lookup(pid)
		if !ok {
			return Placement{}, NotFoundError{Kind: "target", ID: pid}
		}
		parent = p
	}

	cur := x.entries[e]
	res := Placement{EntryID: cur.ID}
	if parent != noParent {
		pid := x.entries[parent].ID
		res.ParentEntryID = &pid
	}

	group := x.group(parent)
	sibs := x.without(group, e)
	at := plan.InsertAt
	if at < 0 {
		at = 0
	}
	if at > len(sibs) {
		at = len(sibs)
	}

	if parent == x.parent[e] && indexOf(group, e) == at && cur.OrderIndex > 0 {
		res.ParentEntryID = cur.ParentEntryID
		res.OrderIndex = cur.OrderIndex
		res.Unchanged = true
		return res, nil
	}

	final := make([]int, 0, len(sibs)+1)
	final = append(final, sibs[:at]...)
	final = append(final, e)
	final = append(final, sibs[at:]...)

	if v, ok := x.between(sibs, at); ok {
		res.OrderIndex = v
		return res, nil
	}

	res.UsedRenumber = true
	res.Renumbered = map[string]float64{}
	for k, i := range final {
		v := float64(k+1) * OrderStep
		if i == e {
			res.OrderIndex = v
			continue
		}
		if x.entries[i].OrderIndex != v {
			res.Renumbered[x.entries[i].ID] = v
		}
	}
	return res, nil
}

// between returns an index strictly between sibs[at-1] and sibs[at]. ok is false when there is
// no usable gap.
func (x *Index) between(sibs []int, at int) (float64, bool) {
	for _, i := range sibs {
		if x.entries[i].OrderIndex <= 0 {
			return 0, false
		}
	}
	hasLower := at > 0
	hasUpper := at < len(sibs)
	var lower, upper float64
	if hasLower {
		lower = x.entries[sibs[at-1]].OrderIndex
	}
	if hasUpper {
		upper = x.entries[sibs[at]].OrderIndex
	}

	switch {
	case !hasLower && !hasUpper:
		return OrderStep, true
	case !hasUpper:
		v := lower + OrderStep
		return v, v > lower
	case !hasLower:
		v := upper - OrderStep
		if v <= 0 {
			v = upper / 2
		}
		return v, v > 0 && v < upper
	default:
		if !(lower < upper) {
			return 0, false
		}
		v := lower + (upper-lower)/2
		return v, lower < v && v < upper
	}
}

// ApplyMove validates a proposal against entries and returns the placement it would persist.
// It is a projection: the storage tier repeats the check before writing.
func ApplyMove(entries []model.Entry, entryID string, p Proposal) (Placement, error) {
	x := Build(entries)
	plan, err := x.Validate(entryID, p)
	if err != nil {
		return Placement{}, err
	}
	return x.Assign(plan)
}

// IsMoveLegal reports whether a proposal would be accepted for entries.
func IsMoveLegal(entries []model.Entry, entryID string, p Proposal) bool {
	return Build(entries).IsMoveLegal(entryID, p)
}

// Project returns a copy of entries with the placement applied.
func Project(entries []model.Entry, pl Placement) ([]model.Entry, error) {
	out := append([]model.Entry(nil), entries...)
	found := false
	for i := range out {
		if out[i].ID == pl.EntryID {
			found = true
			if pl.ParentEntryID != nil {
				pid := *pl.ParentEntryID
				out[i].ParentEntryID = &pid
			} else {
				out[i].ParentEntryID = nil
			}
			out[i].OrderIndex = pl.OrderIndex
			continue
		}
		if v, ok := pl.Renumbered[out[i].ID]; ok {
			out[i].OrderIndex = v
		}
	}
	if !found {
		return nil, errors.New("placement entry not in list: " + pl.EntryID)
	}
	return out, nil
}
