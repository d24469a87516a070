package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"replytree/internal/model"
)

const (
	EventThreadCreate   = "thread.create"
	EventThreadRename   = "thread.rename"
	EventThreadHide     = "thread.hide"
	EventThreadRestore  = "thread.restore"
	EventThreadRenumber = "thread.renumber"
	EventEntryAdd       = "entry.add"
	EventEntryEdit      = "entry.edit"
	EventEntryHide      = "entry.hide"
	EventEntryRestore   = "entry.restore"
	EventEntryMove      = "entry.move"
)

func appendEvent(ctx context.Context, tx querier, ts time.Time, actorID, typ, threadID, entityID string, payload any) (model.Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return model.Event{}, err
	}
	ev := model.Event{
		ID:       uuid.NewString(),
		TS:       ts,
		ActorID:  actorID,
		Type:     typ,
		ThreadID: threadID,
		EntityID: entityID,
		Payload:  payload,
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO events(event_id, ts_unixms, actor_id, type, thread_id, entity_id, payload_json)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, toMs(ts), actorID, typ, threadID, entityID, string(raw))
	if err != nil {
		return model.Event{}, err
	}
	ev.Seq, err = res.LastInsertId()
	return ev, err
}

type EventFilter struct {
	ThreadID string
	EntityID string
	AfterSeq int64

	// Limit <= 0 means no limit.
	Limit int
}

// ListEvents returns events in commit order.
func (s *Store) ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error) {
	q := `SELECT seq, event_id, ts_unixms, actor_id, type, thread_id, entity_id, payload_json FROM events WHERE seq > ?`
	args := []any{f.AfterSeq}
	if v := strings.TrimSpace(f.ThreadID); v != "" {
		q += ` AND thread_id = ?`
		args = append(args, v)
	}
	if v := strings.TrimSpace(f.EntityID); v != "" {
		q += ` AND entity_id = ?`
		args = append(args, v)
	}
	q += ` ORDER BY seq ASC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		var (
			ev  model.Event
			ts  int64
			raw string
		)
		if err := rows.Scan(&ev.Seq, &ev.ID, &ts, &ev.ActorID, &ev.Type, &ev.ThreadID, &ev.EntityID, &raw); err != nil {
			return nil, err
		}
		ev.TS = fromMs(ts)
		var payload any
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			ev.Payload = payload
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// LatestEventSeq returns the highest committed event sequence (0 when the log is empty).
func (s *Store) LatestEventSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events`).Scan(&seq)
	return seq, err
}
