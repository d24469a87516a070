package tree

import (
	"errors"
	"fmt"
)

var (
	ErrCycleDetected      = errors.New("cycle detected")
	ErrDepthLimitExceeded = errors.New("depth limit exceeded")
	ErrSelfContainment    = errors.New("cannot move an entry into its own subtree")
	ErrNotFound           = errors.New("not found")
	ErrTargetNotFound     = errors.New("target not found")
	ErrHasReplies         = errors.New("entry has replies; move it with a drop target instead")
	ErrNoNeighbor         = errors.New("no neighbor in that direction")
	ErrInvalidProposal    = errors.New("invalid move proposal")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Is matches ErrNotFound for every kind and ErrTargetNotFound for a missing drop target.
// A hidden entry counts as missing.
func (e NotFoundError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return true
	case ErrTargetNotFound:
		return e.Kind == "target"
	default:
		return false
	}
}

type CycleError struct {
	ID string
}

func (e CycleError) Error() string {
	return fmt.Sprintf("cycle detected at entry %s", e.ID)
}

func (e CycleError) Unwrap() error { return ErrCycleDetected }

type DepthError struct {
	EntryID string
	Depth   int
}

func (e DepthError) Error() string {
	return fmt.Sprintf("depth limit exceeded: %s would reach depth %d (max %d)", e.EntryID, e.Depth, MaxDepth)
}

func (e DepthError) Unwrap() error { return ErrDepthLimitExceeded }

// IsRefusal reports whether err is an expected, user-facing move refusal (as opposed to
// missing data or corruption).
func IsRefusal(err error) bool {
	switch {
	case errors.Is(err, ErrDepthLimitExceeded),
		errors.Is(err, ErrSelfContainment),
		errors.Is(err, ErrHasReplies),
		errors.Is(err, ErrNoNeighbor):
		return true
	default:
		return false
	}
}
