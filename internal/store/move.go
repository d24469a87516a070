package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"replytree/internal/model"
	"replytree/internal/tree"
)

type MoveResult struct {
	Entry     model.Entry    `json:"entry" yaml:"entry"`
	Plan      tree.Plan      `json:"plan" yaml:"plan"`
	Placement tree.Placement `json:"placement" yaml:"placement"`

	// Version is the thread version after the move (unchanged for a no-op move).
	Version int64  `json:"version" yaml:"version"`
	EventID string `json:"eventId,omitempty" yaml:"eventId,omitempty"`
}

// MoveEntry validates p against the thread as stored and, when legal, persists the
// placement, any renumbered siblings, a version bump and an entry.move event in one
// transaction.
func (s *Store) MoveEntry(ctx context.Context, actorID, entryID string, p tree.Proposal) (MoveResult, error) {
	entryID = strings.TrimSpace(entryID)
	var res MoveResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		thread, err := getThread(ctx, tx, cur.ThreadID)
		if err != nil {
			return err
		}
		entries, err := loadEntries(ctx, tx, cur.ThreadID)
		if err != nil {
			return err
		}

		x := tree.Build(entries)
		plan, err := x.Validate(entryID, p)
		if err != nil {
			s.logRefusal(cur.ThreadID, entryID, p, err)
			return err
		}
		pl, err := x.Assign(plan)
		if err != nil {
			return err
		}
		res = MoveResult{Entry: cur, Plan: plan, Placement: pl, Version: thread.Version}
		if pl.Unchanged {
			return nil
		}

		now := s.now()
		if _, err := tx.ExecContext(ctx, `UPDATE entries SET parent_entry_id = ?, order_index = ?, updated_at_unixms = ? WHERE id = ?`,
			nullableParent(pl.ParentEntryID), pl.OrderIndex, toMs(now), entryID); err != nil {
			return err
		}
		if err := writeOrder(ctx, tx, pl.Renumbered); err != nil {
			return err
		}
		v, err := bumpVersion(ctx, tx, cur.ThreadID, now)
		if err != nil {
			return err
		}
		ev, err := appendEvent(ctx, tx, now, actorID, EventEntryMove, cur.ThreadID, entryID, map[string]any{
			"proposal":       p,
			"fromParentId":   cur.ParentID(),
			"fromOrderIndex": cur.OrderIndex,
			"placement":      pl,
		})
		if err != nil {
			return err
		}
		moved, err := getEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		res.Entry = moved
		res.Version = v
		res.EventID = ev.ID
		return nil
	})
	if err != nil {
		return MoveResult{}, err
	}
	s.Log.Info("entry moved", "thread", res.Entry.ThreadID, "entry", entryID, "move", p.String(),
		"parent", res.Entry.ParentID(), "order", res.Placement.OrderIndex, "renumbered", len(res.Placement.Renumbered))
	return res, nil
}

// CheckMove is MoveEntry without the write: it reports what the move would do.
func (s *Store) CheckMove(ctx context.Context, entryID string, p tree.Proposal) (MoveResult, error) {
	cur, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return MoveResult{}, err
	}
	thread, err := s.GetThread(ctx, cur.ThreadID)
	if err != nil {
		return MoveResult{}, err
	}
	entries, err := loadEntries(ctx, s.db, cur.ThreadID)
	if err != nil {
		return MoveResult{}, err
	}
	x := tree.Build(entries)
	plan, err := x.Validate(cur.ID, p)
	if err != nil {
		return MoveResult{}, err
	}
	pl, err := x.Assign(plan)
	if err != nil {
		return MoveResult{}, err
	}
	return MoveResult{Entry: cur, Plan: plan, Placement: pl, Version: thread.Version}, nil
}

// RenumberThread rewrites every sibling group of the thread with OrderStep strides,
// keeping the current order. It returns the indexes that changed.
func (s *Store) RenumberThread(ctx context.Context, actorID, threadID string) (map[string]float64, error) {
	threadID = strings.TrimSpace(threadID)
	var changed map[string]float64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getThread(ctx, tx, threadID); err != nil {
			return err
		}
		entries, err := loadEntries(ctx, tx, threadID)
		if err != nil {
			return err
		}
		changed = tree.RenumberAll(entries)
		if len(changed) == 0 {
			return nil
		}
		if err := writeOrder(ctx, tx, changed); err != nil {
			return err
		}
		now := s.now()
		if _, err := bumpVersion(ctx, tx, threadID, now); err != nil {
			return err
		}
		_, err = appendEvent(ctx, tx, now, actorID, EventThreadRenumber, threadID, threadID, map[string]any{"renumbered": changed})
		return err
	})
	return changed, err
}

// CheckThread audits the stored thread for cycles, depth violations and ordering problems.
func (s *Store) CheckThread(ctx context.Context, threadID string) (tree.Report, error) {
	entries, err := s.ListEntries(ctx, threadID)
	if err != nil {
		return tree.Report{}, err
	}
	rep := tree.Audit(entries)
	rep.ThreadID = strings.TrimSpace(threadID)
	for _, it := range rep.Issues {
		if it.Level == tree.IssueError {
			s.Log.Warn("thread integrity", "thread", rep.ThreadID, "entry", it.EntryID, "code", it.Code)
		}
	}
	return rep, nil
}

func writeOrder(ctx context.Context, tx querier, order map[string]float64) error {
	for id, v := range order {
		if _, err := tx.ExecContext(ctx, `UPDATE entries SET order_index = ? WHERE id = ?`, v, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) logRefusal(threadID, entryID string, p tree.Proposal, err error) {
	switch {
	case errors.Is(err, tree.ErrCycleDetected):
		s.Log.Warn("move refused: corrupt thread", "thread", threadID, "entry", entryID, "move", p.String(), "err", err)
	case tree.IsRefusal(err):
		s.Log.Info("move refused", "thread", threadID, "entry", entryID, "move", p.String(), "err", err)
	default:
		s.Log.Debug("move rejected", "thread", threadID, "entry", entryID, "move", p.String(), "err", err)
	}
}
