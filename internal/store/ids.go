package store

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"strings"
)

// newRandomID returns prefix-<suffix> where suffix is 8 chars of base32 (lowercase, no padding).
// 8 chars base32 ~= 40 bits of space.
func newRandomID(prefix string) (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	suffix := strings.ToLower(enc.EncodeToString(b[:]))
	return prefix + "-" + suffix, nil
}

// newID returns a fresh id that collides with no thread or entry.
func newID(ctx context.Context, q querier, prefix string) (string, error) {
	for attempt := 0; attempt < 8; attempt++ {
		id, err := newRandomID(prefix)
		if err != nil {
			return "", err
		}
		taken, err := idExists(ctx, q, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", errors.New("could not allocate a unique id")
}

func idExists(ctx context.Context, q querier, id string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(1) FROM threads WHERE id = ?) + (SELECT COUNT(1) FROM entries WHERE id = ?)`,
		id, id).Scan(&n)
	return n > 0, err
}
