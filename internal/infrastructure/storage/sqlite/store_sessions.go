package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chronicler-app/chronicler/internal/domain"
)

// CreateSession inserts a session and its player roster in one transaction.
func (s *Store) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}
	if session.GameMasterID == 0 {
		return domain.Session{}, fmt.Errorf("%w: game master id is required", domain.ErrInvalidInput)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Session{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO sessions (title, game_master_id) VALUES (?, ?)",
		session.Title, session.GameMasterID,
	)
	if err != nil {
		if isConstraintError(err) {
			return domain.Session{}, domain.ErrUserNotFound
		}
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Session{}, fmt.Errorf("create session id: %w", err)
	}

	for _, playerID := range session.PlayerIDs {
		if playerID == session.GameMasterID {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO session_players (session_id, user_id) VALUES (?, ?)",
			id, playerID,
		); err != nil {
			if isConstraintError(err) {
				return domain.Session{}, domain.ErrUserNotFound
			}
			return domain.Session{}, fmt.Errorf("enroll player %d: %w", playerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Session{}, fmt.Errorf("commit: %w", err)
	}

	session.ID = id
	return session, nil
}

// GetSession returns one session with its player roster.
func (s *Store) GetSession(ctx context.Context, id int64) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}

	var session domain.Session
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, title, game_master_id FROM sessions WHERE id = ?", id)
	if err := row.Scan(&session.ID, &session.Title, &session.GameMasterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT user_id FROM session_players WHERE session_id = ? ORDER BY user_id", id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var playerID int64
		if err := rows.Scan(&playerID); err != nil {
			return domain.Session{}, fmt.Errorf("scan player id: %w", err)
		}
		session.PlayerIDs = append(session.PlayerIDs, playerID)
	}
	if err := rows.Err(); err != nil {
		return domain.Session{}, fmt.Errorf("iterate players: %w", err)
	}

	return session, nil
}

// DeleteSession removes a session; roster and events cascade with it.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	res, err := s.sqlDB.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
