package model

import "time"

type Thread struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	AuthorID  string    `json:"authorId,omitempty" yaml:"authorId,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
	Hidden    bool      `json:"hidden" yaml:"hidden"`

	// Version is bumped by every committed mutation of the thread or one of its entries.
	Version int64 `json:"version" yaml:"version"`
}

type Entry struct {
	ID       string `json:"id" yaml:"id"`
	ThreadID string `json:"threadId" yaml:"threadId"`

	// ParentEntryID is nil for root entries.
	ParentEntryID *string `json:"parentEntryId,omitempty" yaml:"parentEntryId,omitempty"`

	// OrderIndex orders siblings. Zero means unassigned (legacy rows); assigned values are > 0.
	OrderIndex float64 `json:"orderIndex" yaml:"orderIndex"`

	Body     string `json:"body" yaml:"body"`
	AuthorID string `json:"authorId,omitempty" yaml:"authorId,omitempty"`
	Hidden   bool   `json:"hidden" yaml:"hidden"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// ParentID returns the parent id, or "" for roots.
func (e Entry) ParentID() string {
	if e.ParentEntryID == nil {
		return ""
	}
	return *e.ParentEntryID
}

type Event struct {
	Seq      int64     `json:"seq" yaml:"seq"`
	ID       string    `json:"id" yaml:"id"`
	TS       time.Time `json:"ts" yaml:"ts"`
	ActorID  string    `json:"actorId" yaml:"actorId"`
	Type     string    `json:"type" yaml:"type"`
	ThreadID string    `json:"threadId,omitempty" yaml:"threadId,omitempty"`
	EntityID string    `json:"entityId" yaml:"entityId"`
	Payload  any       `json:"payload" yaml:"payload"`
}
