package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/chronicler-app/chronicler/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "chronicler.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedSession(t *testing.T, store *Store) (domain.Session, domain.User, domain.User) {
	t.Helper()
	ctx := context.Background()

	gm, err := store.CreateUser(ctx, "Alda")
	if err != nil {
		t.Fatalf("create gm: %v", err)
	}
	player, err := store.CreateUser(ctx, "Bram")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	session, err := store.CreateSession(ctx, domain.Session{
		Title:        "The Sunken Keep",
		GameMasterID: gm.ID,
		PlayerIDs:    []int64{player.ID},
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session, gm, player
}

func TestCreateAndGetSession(t *testing.T) {
	store := openTestStore(t)
	session, gm, player := seedSession(t, store)

	got, err := store.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.GameMasterID != gm.ID {
		t.Fatalf("expected game master %d, got %d", gm.ID, got.GameMasterID)
	}
	if len(got.PlayerIDs) != 1 || got.PlayerIDs[0] != player.ID {
		t.Fatalf("expected roster [%d], got %v", player.ID, got.PlayerIDs)
	}
	if got.Title != "The Sunken Keep" {
		t.Fatalf("expected title to round trip, got %q", got.Title)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetSession(context.Background(), 999); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("GetSession error = %v, want ErrSessionNotFound", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetUser(context.Background(), 999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("GetUser error = %v, want ErrUserNotFound", err)
	}
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	store := openTestStore(t)
	session, gm, _ := seedSession(t, store)

	before := time.Now().Add(-time.Second)
	stored, err := store.AppendEvent(context.Background(), domain.SessionEvent{
		SessionID:    session.ID,
		AuthorUserID: gm.ID,
		Kind:         domain.KindChatMessage,
		PayloadJSON:  `{"message":"hello"}`,
	})
	if err != nil {
		t.Fatalf("append event: %v", err)
	}
	if stored.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if stored.OccurredAt.Before(before) {
		t.Fatalf("expected server-assigned occurred-at, got %v", stored.OccurredAt)
	}
	if stored.OccurredAt.Nanosecond()%int(time.Millisecond) != 0 {
		t.Fatalf("expected millisecond truncation, got %v", stored.OccurredAt)
	}
}

func TestAppendToMissingSession(t *testing.T) {
	store := openTestStore(t)
	_, gm, _ := seedSession(t, store)

	_, err := store.AppendEvent(context.Background(), domain.SessionEvent{
		SessionID:    999,
		AuthorUserID: gm.ID,
		Kind:         domain.KindChatMessage,
		PayloadJSON:  `{"message":"hello"}`,
	})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("AppendEvent error = %v, want ErrSessionNotFound", err)
	}

	count, err := store.CountEvents(context.Background(), 999)
	if err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows persisted, got %d", count)
	}
}

func TestListEventsOrdering(t *testing.T) {
	store := openTestStore(t)
	session, gm, player := seedSession(t, store)
	ctx := context.Background()

	// Pin both events to the same millisecond: the id column must break
	// the tie in insertion order.
	at := time.Date(2026, 9, 1, 12, 0, 0, int(123*time.Millisecond), time.UTC)
	first, err := store.AppendEvent(ctx, domain.SessionEvent{
		SessionID:    session.ID,
		AuthorUserID: gm.ID,
		Kind:         domain.KindChatMessage,
		PayloadJSON:  `{"message":"first"}`,
		OccurredAt:   at,
	})
	if err != nil {
		t.Fatalf("append first: %v", err)
	}
	second, err := store.AppendEvent(ctx, domain.SessionEvent{
		SessionID:    session.ID,
		AuthorUserID: player.ID,
		Kind:         domain.KindChatMessage,
		PayloadJSON:  `{"message":"second"}`,
		OccurredAt:   at,
	})
	if err != nil {
		t.Fatalf("append second: %v", err)
	}

	events, err := store.ListEvents(ctx, session.ID, 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != first.ID || events[1].ID != second.ID {
		t.Fatalf("expected id tie-break order [%d %d], got [%d %d]",
			first.ID, second.ID, events[0].ID, events[1].ID)
	}
	if !events[0].OccurredAt.Equal(events[1].OccurredAt) {
		t.Fatal("expected equal timestamps in this scenario")
	}
	if events[0].AuthorName != "Alda" || events[1].AuthorName != "Bram" {
		t.Fatalf("expected author names resolved, got %q and %q",
			events[0].AuthorName, events[1].AuthorName)
	}

	// Stable across repeated calls.
	again, err := store.ListEvents(ctx, session.ID, 0)
	if err != nil {
		t.Fatalf("list events again: %v", err)
	}
	for i := range events {
		if again[i].ID != events[i].ID {
			t.Fatal("expected stable ordering across calls")
		}
	}
}

func TestListEventsAfterCursor(t *testing.T) {
	store := openTestStore(t)
	session, gm, _ := seedSession(t, store)
	ctx := context.Background()

	var last int64
	for i := 0; i < 3; i++ {
		stored, err := store.AppendEvent(ctx, domain.SessionEvent{
			SessionID:    session.ID,
			AuthorUserID: gm.ID,
			Kind:         domain.KindChatMessage,
			PayloadJSON:  `{"message":"m"}`,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		last = stored.ID
	}

	events, err := store.ListEvents(ctx, session.ID, last-1)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].ID != last {
		t.Fatalf("expected only event %d after cursor, got %v", last, events)
	}
}

func TestDeleteSessionCascadesEvents(t *testing.T) {
	store := openTestStore(t)
	session, gm, _ := seedSession(t, store)
	ctx := context.Background()

	if _, err := store.AppendEvent(ctx, domain.SessionEvent{
		SessionID:    session.ID,
		AuthorUserID: gm.ID,
		Kind:         domain.KindChatMessage,
		PayloadJSON:  `{"message":"doomed"}`,
	}); err != nil {
		t.Fatalf("append event: %v", err)
	}

	if err := store.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	count, err := store.CountEvents(ctx, session.ID)
	if err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected cascade to remove events, got %d", count)
	}

	if err := store.DeleteSession(ctx, session.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("second delete error = %v, want ErrSessionNotFound", err)
	}
}

func TestForeignKeysEnforcedOnEveryConnection(t *testing.T) {
	store := openTestStore(t)
	seedSession(t, store)
	ctx := context.Background()

	// Holding the first connection forces the second grab onto a fresh
	// pooled connection; the pragma must hold on both.
	first, err := store.sqlDB.Conn(ctx)
	if err != nil {
		t.Fatalf("first conn: %v", err)
	}
	defer first.Close()
	second, err := store.sqlDB.Conn(ctx)
	if err != nil {
		t.Fatalf("second conn: %v", err)
	}
	defer second.Close()

	for i, conn := range []*sql.Conn{first, second} {
		var enabled int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
			t.Fatalf("conn %d: read pragma: %v", i+1, err)
		}
		if enabled != 1 {
			t.Fatalf("conn %d: foreign_keys = %d, want 1", i+1, enabled)
		}
	}

	_, err = second.ExecContext(ctx,
		`INSERT INTO session_events (session_id, author_user_id, kind, payload, occurred_at)
		 VALUES (?, ?, ?, ?, ?)`,
		999, 999, "ChatMessage", `{"message":"orphan"}`, time.Now().UnixMilli())
	if err == nil {
		t.Fatal("expected foreign key violation for event of nonexistent session")
	}
	if !isConstraintError(err) {
		t.Fatalf("expected constraint error, got %v", err)
	}
}
