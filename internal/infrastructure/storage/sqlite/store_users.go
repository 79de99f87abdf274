package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/chronicler-app/chronicler/internal/domain"
)

// CreateUser inserts one user and returns it with its assigned id.
func (s *Store) CreateUser(ctx context.Context, name string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.User{}, fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	res, err := s.sqlDB.ExecContext(ctx, "INSERT INTO users (name) VALUES (?)", name)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, fmt.Errorf("create user id: %w", err)
	}

	return domain.User{ID: id, Name: name}, nil
}

// GetUser returns one user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.User{}, fmt.Errorf("storage is not configured")
	}

	var user domain.User
	row := s.sqlDB.QueryRowContext(ctx, "SELECT id, name FROM users WHERE id = ?", id)
	if err := row.Scan(&user.ID, &user.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
