// Package store persists threads, entries and the event log in a local SQLite database.
//
// The store is the authority for every mutation. Moves are re-validated against the rows
// read inside the write transaction, never against a client's projection.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"replytree/internal/logging"
)

const (
	dirName    = ".replytree"
	dbFileName = "replytree.sqlite"
)

var ErrNotFound = errors.New("not found")

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

type Store struct {
	Dir string
	Log *slog.Logger

	db *sql.DB

	// writeMu serializes write transactions from this process; other processes queue on the
	// SQLite write lock.
	writeMu sync.Mutex
	now     func() time.Time
}

// DiscoverDir walks up from start looking for a .replytree directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, dirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DefaultDir is the nearest .replytree above the working directory, or ./.replytree.
func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, dirName), nil
}

// Open creates dir if needed, opens the database and applies the schema.
func Open(ctx context.Context, dir string, log *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &Store{Dir: dir, Log: logging.OrDiscard(log), now: func() time.Time { return time.Now().UTC() }}
	db, err := openSQLite(ctx, s.Path())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path(), err)
	}
	s.db = db
	return s, nil
}

func (s *Store) Path() string { return filepath.Join(s.Dir, dbFileName) }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// withTx runs fn in one write transaction and commits when fn returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
