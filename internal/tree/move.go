package tree

import (
	"fmt"
	"strings"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

type Position string

const (
	Before Position = "before"
	After  Position = "after"
	Child  Position = "child"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Up:
		return Up, nil
	case Down:
		return Down, nil
	default:
		return "", fmt.Errorf("%w: unknown direction %q (want up|down)", ErrInvalidProposal, s)
	}
}

func ParsePosition(s string) (Position, error) {
	switch Position(strings.ToLower(strings.TrimSpace(s))) {
	case Before:
		return Before, nil
	case After:
		return After, nil
	case Child:
		return Child, nil
	default:
		return "", fmt.Errorf("%w: unknown position %q (want before|after|child)", ErrInvalidProposal, s)
	}
}

// Proposal is either a directional move (Direction set) or a targeted drop (TargetID and
// Position set).
type Proposal struct {
	Direction Direction `json:"direction,omitempty" yaml:"direction,omitempty"`
	TargetID  string    `json:"targetEntryId,omitempty" yaml:"targetEntryId,omitempty"`
	Position  Position  `json:"position,omitempty" yaml:"position,omitempty"`
}

func Move(d Direction) Proposal { return Proposal{Direction: d} }

func MoveTo(targetID string, pos Position) Proposal {
	return Proposal{TargetID: targetID, Position: pos}
}

func (p Proposal) Directional() bool { return p.Direction != "" }

func (p Proposal) Check() error {
	hasDir := p.Direction != ""
	hasTarget := strings.TrimSpace(p.TargetID) != "" || p.Position != ""
	switch {
	case hasDir && hasTarget:
		return fmt.Errorf("%w: use either a direction or a target", ErrInvalidProposal)
	case hasDir:
		_, err := ParseDirection(string(p.Direction))
		return err
	case hasTarget:
		if strings.TrimSpace(p.TargetID) == "" {
			return fmt.Errorf("%w: missing target entry", ErrInvalidProposal)
		}
		_, err := ParsePosition(string(p.Position))
		return err
	default:
		return fmt.Errorf("%w: empty proposal", ErrInvalidProposal)
	}
}

func (p Proposal) String() string {
	if p.Directional() {
		return string(p.Direction)
	}
	return string(p.Position) + " " + p.TargetID
}

// Plan is a validated move: the destination sibling group and the insertion point within it,
// counted after removing the moved entry from that group.
type Plan struct {
	EntryID  string `json:"entryId" yaml:"entryId"`
	ParentID string `json:"parentEntryId,omitempty" yaml:"parentEntryId,omitempty"`
	InsertAt int    `json:"insertAt" yaml:"insertAt"`
	Depth    int    `json:"depth" yaml:"depth"`
	Reparent bool   `json:"reparent" yaml:"reparent"`
}

// Validate checks a proposal against the current index and returns where the entry would
// land.
func (x *Index) Validate(entryID string, p Proposal) (Plan, error) {
	if err := p.Check(); err != nil {
		return Plan{}, err
	}
	e, ok := x.lookup(entryID)
	if !ok || x.entries[e].Hidden {
		return Plan{}, NotFoundError{Kind: "entry", ID: entryID}
	}
	if _, err := x.depthAt(e); err != nil {
		return Plan{}, err
	}
	if _, err := x.heightAt(e); err != nil {
		return Plan{}, err
	}
	if p.Directional() {
		d, _ := ParseDirection(string(p.Direction))
		return x.validateDirectional(e, d)
	}
	pos, _ := ParsePosition(string(p.Position))
	return x.validateTargeted(e, p.TargetID, pos)
}

// IsMoveLegal is Validate reduced to a boolean for UI pre-checks.
func (x *Index) IsMoveLegal(entryID string, p Proposal) bool {
	_, err := x.Validate(entryID, p)
	return err == nil
}

func (x *Index) validateDirectional(e int, d Direction) (Plan, error) {
	if x.hasVisibleChild(e) {
		return Plan{}, ErrHasReplies
	}
	if n, ok := x.linearNeighbor(e, d); ok && x.isAncestorAt(e, n) {
		return Plan{}, ErrSelfContainment
	}

	p := x.parent[e]
	if p != noParent {
		band := x.group(p)
		if s, ok := x.visibleSibling(band, e, d); ok {
			// Same parent: depth is unchanged.
			return x.planAround(e, p, s, d)
		}
		// Edge of the band: step out next to the parent.
		return x.planAround(e, x.parent[p], p, d)
	}

	r, ok := x.visibleSibling(x.roots, e, d)
	if !ok {
		return Plan{}, ErrNoNeighbor
	}
	if !x.hasVisibleChild(r) {
		return x.planAround(e, noParent, r, d)
	}
	// The adjacent root's subtree occupies the neighboring slot: enter it at the near end.
	at := 0
	if d == Up {
		at = len(x.without(x.children[r], e))
	}
	return x.plan(e, r, at)
}

func (x *Index) validateTargeted(e int, targetID string, pos Position) (Plan, error) {
	t, ok := x.lookup(targetID)
	if !ok || x.entries[t].Hidden {
		return Plan{}, NotFoundError{Kind: "target", ID: targetID}
	}
	if t == e || x.isAncestorAt(e, t) {
		return Plan{}, ErrSelfContainment
	}
	if _, err := x.depthAt(t); err != nil {
		return Plan{}, err
	}
	switch pos {
	case Child:
		return x.plan(e, t, len(x.without(x.children[t], e)))
	case Before:
		return x.planAround(e, x.parent[t], t, Up)
	default:
		return x.planAround(e, x.parent[t], t, Down)
	}
}

// planAround places e directly before (Up) or after (Down) anchor inside parent's group.
func (x *Index) planAround(e, parent, anchor int, d Direction) (Plan, error) {
	sibs := x.without(x.group(parent), e)
	at := indexOf(sibs, anchor)
	if at < 0 {
		return Plan{}, CycleError{ID: x.entries[anchor].ID}
	}
	if d == Down {
		at++
	}
	return x.plan(e, parent, at)
}

// plan checks the destination against the depth limit and fills in the Plan.
func (x *Index) plan(e, parent, at int) (Plan, error) {
	if parent == e || (parent != noParent && x.isAncestorAt(e, parent)) {
		return Plan{}, ErrSelfContainment
	}
	parentDepth, err := x.depthAt(parent)
	if err != nil {
		return Plan{}, err
	}
	height, err := x.heightAt(e)
	if err != nil {
		return Plan{}, err
	}
	if parentDepth+height > MaxDepth {
		return Plan{}, DepthError{EntryID: x.entries[e].ID, Depth: parentDepth + height}
	}
	pl := Plan{
		EntryID:  x.entries[e].ID,
		InsertAt: at,
		Depth:    parentDepth + 1,
		Reparent: parent != x.parent[e],
	}
	if parent != noParent {
		pl.ParentID = x.entries[parent].ID
	}
	return pl, nil
}

// hasVisibleChild reports whether i has a direct reply that is not hidden. Hidden replies
// travel with their parent.
func (x *Index) hasVisibleChild(i int) bool {
	for _, c := range x.children[i] {
		if !x.entries[c].Hidden {
			return true
		}
	}
	return false
}

// visibleSibling returns the nearest non-hidden member of group next to e in direction d.
func (x *Index) visibleSibling(group []int, e int, d Direction) (int, bool) {
	at := indexOf(group, e)
	if at < 0 {
		return 0, false
	}
	step := 1
	if d == Up {
		step = -1
	}
	for k := at + step; k >= 0 && k < len(group); k += step {
		if !x.entries[group[k]].Hidden {
			return group[k], true
		}
	}
	return 0, false
}

// linearNeighbor returns the nearest non-hidden entry next to e in render order.
func (x *Index) linearNeighbor(e int, d Direction) (int, bool) {
	rows := x.Rows()
	at := -1
	for k, r := range rows {
		if x.byID[r.Entry.ID] == e {
			at = k
			break
		}
	}
	if at < 0 {
		return 0, false
	}
	step := 1
	if d == Up {
		step = -1
	}
	for k := at + step; k >= 0 && k < len(rows); k += step {
		if !rows[k].Entry.Hidden {
			return x.byID[rows[k].Entry.ID], true
		}
	}
	return 0, false
}

func (x *Index) without(group []int, e int) []int {
	out := make([]int, 0, len(group))
	for _, i := range group {
		if i != e {
			out = append(out, i)
		}
	}
	return out
}

func indexOf(group []int, i int) int {
	for k, g := range group {
		if g == i {
			return k
		}
	}
	return -1
}

// DropPositions lists the drop positions offered when entryID hovers over targetID. Child is
// only offered below MaxDepth, and every offered position passes Validate.
func (x *Index) DropPositions(entryID, targetID string) []Position {
	var out []Position
	for _, pos := range []Position{Before, After, Child} {
		if pos == Child {
			if d, err := x.DepthOf(targetID); err != nil || d >= MaxDepth {
				continue
			}
		}
		if x.IsMoveLegal(entryID, MoveTo(targetID, pos)) {
			out = append(out, pos)
		}
	}
	return out
}

// DropTarget is one visible entry entryID may be dropped on, with its legal positions.
type DropTarget struct {
	TargetID  string     `json:"targetId" yaml:"targetId"`
	Depth     int        `json:"depth" yaml:"depth"`
	Positions []Position `json:"positions" yaml:"positions"`
}

// DropTargets walks the visible rows in render order and keeps those with at least one legal
// drop position for entryID.
func (x *Index) DropTargets(entryID string) []DropTarget {
	out := []DropTarget{}
	for _, r := range x.Rows() {
		if r.Entry.Hidden || r.Entry.ID == entryID {
			continue
		}
		if ps := x.DropPositions(entryID, r.Entry.ID); len(ps) > 0 {
			out = append(out, DropTarget{TargetID: r.Entry.ID, Depth: r.Depth, Positions: ps})
		}
	}
	return out
}
