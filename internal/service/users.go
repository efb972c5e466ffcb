// Package service implements the application services between the Telegram
// handlers and the repositories.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"stylebot/core/logger"
	"stylebot/internal/domain"
	"stylebot/internal/repository"
)

// resolveAttempts bounds the lookup-insert-retry loop in ResolveOrCreate.
const resolveAttempts = 3

// ErrUnresolvedUser is returned when a user can neither be found nor created
// after all attempts. The current request must be aborted; callers must not
// proceed with a nil user.
var ErrUnresolvedUser = errors.New("service: unresolved user")

// UserStore is the storage contract required by the user directory.
type UserStore interface {
	ByTelegramID(ctx context.Context, tgID int64) (*domain.User, error)
	Insert(ctx context.Context, u *domain.User) error
	IncrementActions(ctx context.Context, userID int64) error
	Count(ctx context.Context) (int64, error)
}

// Users is the user directory: it resolves external Telegram identities to
// internal user rows, creating them on first contact.
type Users struct {
	store UserStore
}

// NewUsers constructs the user directory service.
func NewUsers(store UserStore) *Users {
	return &Users{store: store}
}

// ResolveOrCreate returns the user row for tgID, inserting it on first
// contact. Two handlers processing first-contact events for the same
// identity may race on the insert; the loser observes a unique violation,
// and the retry re-reads the winner's row. The loop is bounded; exhausting
// it yields ErrUnresolvedUser.
func (s *Users) ResolveOrCreate(ctx context.Context, tgID int64, fullname, username, source string) (*domain.User, error) {
	for attempt := 1; attempt <= resolveAttempts; attempt++ {
		u, err := s.store.ByTelegramID(ctx, tgID)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		u = &domain.User{
			TelegramID: tgID,
			Fullname:   fullname,
			Username:   username,
			Source:     nullString(source),
		}
		insErr := s.store.Insert(ctx, u)
		if insErr == nil {
			logger.LogEvent(ctx, logger.SVCUsers, slog.LevelInfo, "user.created",
				slog.Int64("user_id", u.ID),
				slog.String("username", logger.SanitizeLimit(username, 64)),
			)
			return u, nil
		}
		if !repository.IsUniqueViolation(insErr) {
			return nil, insErr
		}
		logger.LogEvent(ctx, logger.SVCUsers, slog.LevelWarn, "user.create.conflict",
			slog.String("status", "retry"),
			slog.Int("attempts", attempt),
		)
	}

	logger.LogEvent(ctx, logger.SVCUsers, slog.LevelError, "user.resolve.failed",
		slog.String("status", "fail"),
		slog.Int("attempts", resolveAttempts),
	)
	return nil, fmt.Errorf("%w: tg_id %d after %d attempts", ErrUnresolvedUser, tgID, resolveAttempts)
}

// Lookup returns the user row for tgID without creating one. Unknown
// identities yield repository.ErrNotFound.
func (s *Users) Lookup(ctx context.Context, tgID int64) (*domain.User, error) {
	return s.store.ByTelegramID(ctx, tgID)
}

// BumpActions increments the per-user action counter. Failures are reported
// but are not fatal for the calling handler.
func (s *Users) BumpActions(ctx context.Context, userID int64) error {
	return s.store.IncrementActions(ctx, userID)
}

// Count returns the total number of registered users.
func (s *Users) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
