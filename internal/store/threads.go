package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"replytree/internal/model"
)

var ErrEmptyTitle = errors.New("thread title is empty")

func (s *Store) CreateThread(ctx context.Context, actorID, title string) (model.Thread, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Thread{}, ErrEmptyTitle
	}
	var out model.Thread
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := newID(ctx, tx, "thr")
		if err != nil {
			return err
		}
		now := s.now()
		out = model.Thread{ID: id, Title: title, AuthorID: actorID, CreatedAt: now, UpdatedAt: now, Version: 1}
		if _, err := tx.ExecContext(ctx, `INSERT INTO threads(`+threadCols+`) VALUES(?, ?, ?, ?, ?, ?, ?)`,
			out.ID, out.Title, out.AuthorID, 0, out.Version, toMs(now), toMs(now)); err != nil {
			return err
		}
		_, err = appendEvent(ctx, tx, now, actorID, EventThreadCreate, id, id, map[string]any{"title": title})
		return err
	})
	if err != nil {
		return model.Thread{}, err
	}
	s.Log.Debug("thread created", "thread", out.ID)
	return out, nil
}

func (s *Store) GetThread(ctx context.Context, id string) (model.Thread, error) {
	return getThread(ctx, s.db, id)
}

func getThread(ctx context.Context, q querier, id string) (model.Thread, error) {
	id = strings.TrimSpace(id)
	t, err := scanThread(q.QueryRowContext(ctx, `SELECT `+threadCols+` FROM threads WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Thread{}, NotFoundError{Kind: "thread", ID: id}
	}
	return t, err
}

// ListThreads returns threads oldest first. Hidden threads are skipped unless includeHidden.
func (s *Store) ListThreads(ctx context.Context, includeHidden bool) ([]model.Thread, error) {
	q := `SELECT ` + threadCols + ` FROM threads`
	if !includeHidden {
		q += ` WHERE hidden = 0`
	}
	q += ` ORDER BY created_at_unixms ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Thread{}
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) RenameThread(ctx context.Context, actorID, id, title string) (model.Thread, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Thread{}, ErrEmptyTitle
	}
	return s.updateThread(ctx, actorID, id, EventThreadRename, map[string]any{"title": title},
		`UPDATE threads SET title = ? WHERE id = ?`, title, id)
}

func (s *Store) SetThreadHidden(ctx context.Context, actorID, id string, hidden bool) (model.Thread, error) {
	typ := EventThreadRestore
	if hidden {
		typ = EventThreadHide
	}
	return s.updateThread(ctx, actorID, id, typ, map[string]any{"hidden": hidden},
		`UPDATE threads SET hidden = ? WHERE id = ?`, boolToInt(hidden), id)
}

func (s *Store) updateThread(ctx context.Context, actorID, id, typ string, payload any, stmt string, args ...any) (model.Thread, error) {
	id = strings.TrimSpace(id)
	var out model.Thread
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getThread(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return err
		}
		now := s.now()
		if _, err := bumpVersion(ctx, tx, id, now); err != nil {
			return err
		}
		if _, err := appendEvent(ctx, tx, now, actorID, typ, id, id, payload); err != nil {
			return err
		}
		t, err := getThread(ctx, tx, id)
		out = t
		return err
	})
	return out, err
}

// bumpVersion increments the thread version and returns the new value.
func bumpVersion(ctx context.Context, tx querier, threadID string, now time.Time) (int64, error) {
	if _, err := tx.ExecContext(ctx, `UPDATE threads SET version = version + 1, updated_at_unixms = ? WHERE id = ?`,
		toMs(now), threadID); err != nil {
		return 0, err
	}
	var v int64
	err := tx.QueryRowContext(ctx, `SELECT version FROM threads WHERE id = ?`, threadID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, NotFoundError{Kind: "thread", ID: threadID}
	}
	return v, err
}
