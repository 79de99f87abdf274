package domain

import (
	"context"
	"time"
)

// EventKind discriminates the payload carried by a SessionEvent.
type EventKind string

const (
	KindChatMessage EventKind = "ChatMessage"
	KindDiceRoll    EventKind = "DiceRoll"
	KindShareItem   EventKind = "ShareItem"
	KindShareNpc    EventKind = "ShareNpc"
	KindUserJoined  EventKind = "UserJoined"
	KindUserLeft    EventKind = "UserLeft"
)

// Known reports whether k is one of the closed set of event kinds.
func (k EventKind) Known() bool {
	switch k {
	case KindChatMessage, KindDiceRoll, KindShareItem, KindShareNpc, KindUserJoined, KindUserLeft:
		return true
	}
	return false
}

// Ephemeral reports whether k is broadcast-only and never persisted.
func (k EventKind) Ephemeral() bool {
	return k == KindUserJoined || k == KindUserLeft
}

// SessionEvent is both the stored record and the wire envelope for a
// session event. Events are immutable once created. ID == 0 marks an
// ephemeral event that was broadcast but never written to the store.
type SessionEvent struct {
	ID           int64     `json:"id"`
	SessionID    int64     `json:"sessionId"`
	AuthorUserID int64     `json:"authorUserId"`
	AuthorName   string    `json:"authorName"`
	Kind         EventKind `json:"kind"`
	PayloadJSON  string    `json:"payloadJson"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Ephemeral reports whether the event was never persisted.
func (e SessionEvent) Ephemeral() bool {
	return e.ID == 0
}

type EventRepository interface {
	// AppendEvent persists the event, assigning ID and OccurredAt.
	// The store is append-only: no update, no delete.
	AppendEvent(ctx context.Context, evt SessionEvent) (SessionEvent, error)
	// ListEvents returns events for a session with ID greater than afterID,
	// ordered by (OccurredAt, ID) ascending, with AuthorName resolved.
	ListEvents(ctx context.Context, sessionID, afterID int64) ([]SessionEvent, error)
}
