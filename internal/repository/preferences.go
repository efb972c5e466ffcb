package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"stylebot/internal/domain"
)

// Preferences accesses the append-only preferences table.
type Preferences struct {
	db *sqlx.DB
}

// NewPreferences constructs the preferences repository.
func NewPreferences(db *sqlx.DB) *Preferences { return &Preferences{db: db} }

// Insert persists a preference using q, which may be an open transaction;
// a nil q falls back to the pool.
func (r *Preferences) Insert(ctx context.Context, q sqlx.ExtContext, p *domain.Preference) error {
	if q == nil {
		q = r.db
	}
	err := sqlx.GetContext(ctx, q, p,
		`INSERT INTO preferences (user_id, event_type, style, season_bias)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, user_id, event_type, style, season_bias`,
		p.UserID, p.EventType, p.Style, p.SeasonBias)
	if err != nil {
		return fmt.Errorf("preference insert user %d: %w", p.UserID, err)
	}
	return nil
}
