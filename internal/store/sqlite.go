package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"replytree/internal/model"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	// Pragmas go in the DSN so every pooled connection gets them. WAL gives one writer and
	// many readers; _txlock=immediate takes the write lock at BEGIN so two movers never both
	// read the same snapshot and then race to upgrade.
	dsn := path + "?_txlock=immediate" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(ON)"
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS threads (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			author_id TEXT NOT NULL,
			hidden INTEGER NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 0,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL REFERENCES threads(id),
			parent_entry_id TEXT,
			order_index REAL NOT NULL DEFAULT 0,
			body TEXT NOT NULL,
			author_id TEXT NOT NULL,
			hidden INTEGER NOT NULL DEFAULT 0,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_thread ON entries(thread_id);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_parent ON entries(thread_id, parent_entry_id);`,
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL UNIQUE,
			ts_unixms INTEGER NOT NULL,
			actor_id TEXT NOT NULL,
			type TEXT NOT NULL,
			thread_id TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			payload_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_events_thread ON events(thread_id, seq);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO meta(k, v) VALUES('schema_version', ?)`, schemaVersion); err != nil {
		return err
	}
	_, err := ensureMetaUUID(ctx, db, "store_id")
	return err
}

func ensureMetaUUID(ctx context.Context, q querier, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("empty meta key")
	}
	var v string
	err := q.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = ?`, key).Scan(&v)
	if err == nil && strings.TrimSpace(v) != "" {
		return v, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	id := uuid.NewString()
	if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO meta(k, v) VALUES(?, ?)`, key, id); err != nil {
		return "", err
	}
	// Another connection may have won the insert.
	if err := q.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = ?`, key).Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}

// StoreID is a stable identifier for this database, generated on first open.
func (s *Store) StoreID(ctx context.Context) (string, error) {
	return ensureMetaUUID(ctx, s.db, "store_id")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toMs(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMs(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

const threadCols = `id, title, author_id, hidden, version, created_at_unixms, updated_at_unixms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(r rowScanner) (model.Thread, error) {
	var (
		t                  model.Thread
		hidden             int
		createdMs, updated int64
	)
	if err := r.Scan(&t.ID, &t.Title, &t.AuthorID, &hidden, &t.Version, &createdMs, &updated); err != nil {
		return model.Thread{}, err
	}
	t.Hidden = hidden != 0
	t.CreatedAt = fromMs(createdMs)
	t.UpdatedAt = fromMs(updated)
	return t, nil
}

const entryCols = `id, thread_id, parent_entry_id, order_index, body, author_id, hidden, created_at_unixms, updated_at_unixms`

func scanEntry(r rowScanner) (model.Entry, error) {
	var (
		e                  model.Entry
		parent             sql.NullString
		hidden             int
		createdMs, updated int64
	)
	if err := r.Scan(&e.ID, &e.ThreadID, &parent, &e.OrderIndex, &e.Body, &e.AuthorID, &hidden, &createdMs, &updated); err != nil {
		return model.Entry{}, err
	}
	if parent.Valid && strings.TrimSpace(parent.String) != "" {
		p := parent.String
		e.ParentEntryID = &p
	}
	e.Hidden = hidden != 0
	e.CreatedAt = fromMs(createdMs)
	e.UpdatedAt = fromMs(updated)
	return e, nil
}

func nullableParent(p *string) any {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return strings.TrimSpace(*p)
}
