// Package repository provides sqlx-based data access for the style assistant.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"stylebot/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("repository: not found")

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint conflict.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

// Users accesses the users table.
type Users struct {
	db *sqlx.DB
}

// NewUsers constructs the users repository.
func NewUsers(db *sqlx.DB) *Users { return &Users{db: db} }

// ByTelegramID loads a user by the external Telegram identity.
func (r *Users) ByTelegramID(ctx context.Context, tgID int64) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u,
		`SELECT * FROM users WHERE tg_id = $1`, tgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users by tg_id %d: %w", tgID, err)
	}
	return &u, nil
}

// Insert persists a new user row and fills in the generated id and timestamp.
// A unique-violation on tg_id is returned unwrapped-detectable via IsUniqueViolation.
func (r *Users) Insert(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (tg_id, fullname, username, source)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, action_count`,
		u.TelegramID, u.Fullname, u.Username, u.Source,
	).Scan(&u.ID, &u.CreatedAt, &u.ActionCount)
	if err != nil {
		return fmt.Errorf("users insert tg_id %d: %w", u.TelegramID, err)
	}
	return nil
}

// IncrementActions bumps the per-user action counter.
func (r *Users) IncrementActions(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET action_count = action_count + 1 WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("users increment actions %d: %w", userID, err)
	}
	return nil
}

// Count returns the total number of registered users.
func (r *Users) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT count(*) FROM users`); err != nil {
		return 0, fmt.Errorf("users count: %w", err)
	}
	return n, nil
}
