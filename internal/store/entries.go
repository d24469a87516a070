package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"replytree/internal/model"
	"replytree/internal/tree"
)

var ErrEmptyBody = errors.New("entry body is empty")

// AddEntry appends a new entry as the last reply to parentID, or as the last root when
// parentID is empty. The parent's depth is checked against the rows read in the same
// transaction.
func (s *Store) AddEntry(ctx context.Context, actorID, threadID, parentID, body string) (model.Entry, error) {
	threadID = strings.TrimSpace(threadID)
	parentID = strings.TrimSpace(parentID)
	if strings.TrimSpace(body) == "" {
		return model.Entry{}, ErrEmptyBody
	}

	var out model.Entry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getThread(ctx, tx, threadID); err != nil {
			return err
		}
		entries, err := loadEntries(ctx, tx, threadID)
		if err != nil {
			return err
		}
		x := tree.Build(entries)

		id, err := newID(ctx, tx, "ent")
		if err != nil {
			return err
		}
		siblings := x.Roots()
		if parentID != "" {
			p, ok := x.Entry(parentID)
			if !ok || p.Hidden {
				return NotFoundError{Kind: "parent entry", ID: parentID}
			}
			d, err := x.DepthOf(parentID)
			if err != nil {
				s.Log.Warn("reply refused", "thread", threadID, "parent", parentID, "err", err)
				return err
			}
			if d+1 > tree.MaxDepth {
				return tree.DepthError{EntryID: id, Depth: d + 1}
			}
			siblings = x.Children(parentID)
		}

		now := s.now()
		out = model.Entry{
			ID:         id,
			ThreadID:   threadID,
			OrderIndex: tree.NextOrderIndex(siblings),
			Body:       body,
			AuthorID:   actorID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if parentID != "" {
			pid := parentID
			out.ParentEntryID = &pid
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO entries(`+entryCols+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			out.ID, out.ThreadID, nullableParent(out.ParentEntryID), out.OrderIndex, out.Body, out.AuthorID, 0,
			toMs(now), toMs(now)); err != nil {
			return err
		}
		if _, err := bumpVersion(ctx, tx, threadID, now); err != nil {
			return err
		}
		_, err = appendEvent(ctx, tx, now, actorID, EventEntryAdd, threadID, id, map[string]any{
			"parentEntryId": parentID,
			"orderIndex":    out.OrderIndex,
		})
		return err
	})
	if err != nil {
		return model.Entry{}, err
	}
	s.Log.Debug("entry added", "thread", threadID, "entry", out.ID, "parent", parentID)
	return out, nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (model.Entry, error) {
	return getEntry(ctx, s.db, id)
}

func getEntry(ctx context.Context, q querier, id string) (model.Entry, error) {
	id = strings.TrimSpace(id)
	e, err := scanEntry(q.QueryRowContext(ctx, `SELECT `+entryCols+` FROM entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Entry{}, NotFoundError{Kind: "entry", ID: id}
	}
	return e, err
}

// ListEntries returns every entry of the thread, hidden ones included, in storage order.
// Render order comes from tree.Linearize.
func (s *Store) ListEntries(ctx context.Context, threadID string) ([]model.Entry, error) {
	if _, err := s.GetThread(ctx, threadID); err != nil {
		return nil, err
	}
	return loadEntries(ctx, s.db, threadID)
}

func loadEntries(ctx context.Context, q querier, threadID string) ([]model.Entry, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+entryCols+` FROM entries WHERE thread_id = ? ORDER BY created_at_unixms ASC, id ASC`,
		strings.TrimSpace(threadID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) EditEntry(ctx context.Context, actorID, id, body string) (model.Entry, error) {
	if strings.TrimSpace(body) == "" {
		return model.Entry{}, ErrEmptyBody
	}
	return s.updateEntry(ctx, actorID, id, EventEntryEdit, map[string]any{"body": body},
		`UPDATE entries SET body = ?, updated_at_unixms = ? WHERE id = ?`, body)
}

// SetEntryHidden tombstones (or restores) an entry. Its replies stay where they are.
func (s *Store) SetEntryHidden(ctx context.Context, actorID, id string, hidden bool) (model.Entry, error) {
	typ := EventEntryRestore
	if hidden {
		typ = EventEntryHide
	}
	return s.updateEntry(ctx, actorID, id, typ, map[string]any{"hidden": hidden},
		`UPDATE entries SET hidden = ?, updated_at_unixms = ? WHERE id = ?`, boolToInt(hidden))
}

// updateEntry runs stmt with (value, now, id).
func (s *Store) updateEntry(ctx context.Context, actorID, id, typ string, payload any, stmt string, value any) (model.Entry, error) {
	id = strings.TrimSpace(id)
	var out model.Entry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		now := s.now()
		if _, err := tx.ExecContext(ctx, stmt, value, toMs(now), id); err != nil {
			return err
		}
		if _, err := bumpVersion(ctx, tx, cur.ThreadID, now); err != nil {
			return err
		}
		if _, err := appendEvent(ctx, tx, now, actorID, typ, cur.ThreadID, id, payload); err != nil {
			return err
		}
		out, err = getEntry(ctx, tx, id)
		return err
	})
	return out, err
}
