package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/chronicler-app/chronicler/internal/domain"
)

// AppendEvent persists one session event. The store assigns the id and,
// when the caller left it zero, the occurred-at timestamp (server clock,
// truncated to the millisecond). Events are never updated or deleted
// except by cascade when the owning session is deleted.
func (s *Store) AppendEvent(ctx context.Context, evt domain.SessionEvent) (domain.SessionEvent, error) {
	if err := ctx.Err(); err != nil {
		return domain.SessionEvent{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.SessionEvent{}, fmt.Errorf("storage is not configured")
	}
	if evt.SessionID == 0 || evt.AuthorUserID == 0 {
		return domain.SessionEvent{}, fmt.Errorf("%w: session and author ids are required", domain.ErrInvalidInput)
	}
	if evt.Kind == "" {
		return domain.SessionEvent{}, fmt.Errorf("%w: kind is required", domain.ErrInvalidInput)
	}

	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	evt.OccurredAt = evt.OccurredAt.UTC().Truncate(time.Millisecond)

	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO session_events (session_id, author_user_id, kind, payload, occurred_at)
		 VALUES (?, ?, ?, ?, ?)`,
		evt.SessionID,
		evt.AuthorUserID,
		string(evt.Kind),
		evt.PayloadJSON,
		toMillis(evt.OccurredAt),
	)
	if err != nil {
		if isConstraintError(err) {
			// FK violation: the session (or author) vanished between the
			// caller's existence check and this insert.
			return domain.SessionEvent{}, domain.ErrSessionNotFound
		}
		return domain.SessionEvent{}, fmt.Errorf("append event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.SessionEvent{}, fmt.Errorf("append event id: %w", err)
	}
	evt.ID = id

	return evt, nil
}

// ListEvents returns the events of a session with id greater than
// afterID, ordered by (occurred_at, id) ascending. The id column breaks
// ties between events persisted within the same millisecond. Author
// display names are resolved in the same query.
func (s *Store) ListEvents(ctx context.Context, sessionID, afterID int64) ([]domain.SessionEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if sessionID == 0 {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT e.id, e.session_id, e.author_user_id, u.name, e.kind, e.payload, e.occurred_at
		   FROM session_events e
		   JOIN users u ON u.id = e.author_user_id
		  WHERE e.session_id = ? AND e.id > ?
		  ORDER BY e.occurred_at ASC, e.id ASC`,
		sessionID, afterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.SessionEvent, 0, 64)
	for rows.Next() {
		var evt domain.SessionEvent
		var kind string
		var occurredAt int64
		if err := rows.Scan(
			&evt.ID,
			&evt.SessionID,
			&evt.AuthorUserID,
			&evt.AuthorName,
			&kind,
			&evt.PayloadJSON,
			&occurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Kind = domain.EventKind(kind)
		evt.OccurredAt = fromMillis(occurredAt)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// CountEvents returns the number of events persisted for a session.
func (s *Store) CountEvents(ctx context.Context, sessionID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	var count int
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM session_events WHERE session_id = ?", sessionID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}
