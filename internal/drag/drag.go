// Package drag is the pick-up/hover/drop state machine used by interactive clients.
//
// A drag runs Idle -> Dragging -> Hovering -> Finalizing -> Idle. Every transition is a
// method on a State value that returns the next State; nothing here mutates shared data or
// talks to storage. Finalizing only blocks the entry being committed: a different entry may
// be picked up while an earlier move is still in flight.
package drag

import (
	"errors"
	"fmt"

	"replytree/internal/tree"
)

type Phase int

const (
	Idle Phase = iota
	Dragging
	Hovering
	Finalizing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Hovering:
		return "hovering"
	case Finalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

var ErrPending = errors.New("entry has a move in flight")

// Hover is the current drop target. Only legal targets are ever stored here.
type Hover struct {
	TargetID string
	Position tree.Position
}

// Pending is a committed drop waiting for the store's answer.
type Pending struct {
	EntryID  string
	Proposal tree.Proposal
}

type State struct {
	Phase   Phase
	EntryID string
	Hover   Hover
	Pending []Pending

	// Err is the outcome of the last resolved commit (nil on success).
	Err error
}

func (s State) Active() bool { return s.Phase == Dragging || s.Phase == Hovering }

func (s State) IsPending(entryID string) bool {
	for _, p := range s.Pending {
		if p.EntryID == entryID {
			return true
		}
	}
	return false
}

// Start picks up entryID. It is refused while another drag is active or while the same
// entry still has a move in flight.
func (s State) Start(x *tree.Index, entryID string) (State, error) {
	if s.Active() {
		return s, fmt.Errorf("already dragging %s", s.EntryID)
	}
	e, ok := x.Entry(entryID)
	if !ok || e.Hidden {
		return s, tree.NotFoundError{Kind: "entry", ID: entryID}
	}
	if s.IsPending(e.ID) {
		return s, ErrPending
	}
	if _, err := x.DepthOf(e.ID); err != nil {
		return s, err
	}
	return State{Phase: Dragging, EntryID: e.ID, Pending: s.Pending}, nil
}

// HoverOver aims the drag at targetID/pos. An illegal target leaves the drag unaimed
// (Dragging) and ok is false.
func (s State) HoverOver(x *tree.Index, targetID string, pos tree.Position) (State, bool) {
	if !s.Active() {
		return s, false
	}
	next := s
	if x.IsMoveLegal(s.EntryID, tree.MoveTo(targetID, pos)) {
		next.Phase = Hovering
		next.Hover = Hover{TargetID: targetID, Position: pos}
		return next, true
	}
	next.Phase = Dragging
	next.Hover = Hover{}
	return next, false
}

// Aim hovers over targetID using its first legal drop position.
func (s State) Aim(x *tree.Index, targetID string) (State, bool) {
	if !s.Active() {
		return s, false
	}
	positions := x.DropPositions(s.EntryID, targetID)
	if len(positions) == 0 {
		return s.Leave(), false
	}
	return s.HoverOver(x, targetID, positions[0])
}

// Cycle advances to the next legal drop position on the current target.
func (s State) Cycle(x *tree.Index) State {
	if s.Phase != Hovering {
		return s
	}
	positions := x.DropPositions(s.EntryID, s.Hover.TargetID)
	if len(positions) == 0 {
		return s.Leave()
	}
	at := 0
	for i, p := range positions {
		if p == s.Hover.Position {
			at = (i + 1) % len(positions)
			break
		}
	}
	next := s
	next.Hover.Position = positions[at]
	return next
}

func (s State) Leave() State {
	if !s.Active() {
		return s
	}
	next := s
	next.Phase = Dragging
	next.Hover = Hover{}
	return next
}

// Drop commits the hovered target. Dropping while unaimed ends the drag with no effect and
// ok is false.
func (s State) Drop() (State, tree.Proposal, bool) {
	switch s.Phase {
	case Hovering:
		p := tree.MoveTo(s.Hover.TargetID, s.Hover.Position)
		pending := make([]Pending, 0, len(s.Pending)+1)
		pending = append(pending, s.Pending...)
		pending = append(pending, Pending{EntryID: s.EntryID, Proposal: p})
		return State{Phase: Finalizing, EntryID: s.EntryID, Hover: s.Hover, Pending: pending}, p, true
	case Dragging:
		return State{Pending: s.Pending}, tree.Proposal{}, false
	default:
		return s, tree.Proposal{}, false
	}
}

// Resolve records the store's answer for entryID's in-flight move.
func (s State) Resolve(entryID string, err error) State {
	pending := make([]Pending, 0, len(s.Pending))
	for _, p := range s.Pending {
		if p.EntryID != entryID {
			pending = append(pending, p)
		}
	}
	next := s
	next.Pending = pending
	if s.Phase == Finalizing && s.EntryID == entryID {
		next = State{Pending: pending}
	}
	next.Err = err
	return next
}

// Cancel abandons an active drag. In-flight moves are kept.
func (s State) Cancel() State {
	if !s.Active() {
		return s
	}
	return State{Pending: s.Pending}
}
