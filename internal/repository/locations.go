package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"stylebot/internal/domain"
)

// Locations accesses the user_profile table. One row per user; Upsert either
// creates the row or fully overwrites the location fields.
type Locations struct {
	db *sqlx.DB
}

// NewLocations constructs the locations repository.
func NewLocations(db *sqlx.DB) *Locations { return &Locations{db: db} }

// Upsert writes the location profile for a user, relying on the unique
// constraint on user_id so concurrent writers never duplicate the row.
func (r *Locations) Upsert(ctx context.Context, p *domain.LocationProfile) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO user_profile (user_id, city, lat, lon, allow_location)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		     city = EXCLUDED.city,
		     lat = EXCLUDED.lat,
		     lon = EXCLUDED.lon,
		     allow_location = EXCLUDED.allow_location,
		     updated_at = now()
		 RETURNING id, created_at, updated_at`,
		p.UserID, p.City, p.Lat, p.Lon, p.AllowLocation,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("profile upsert user %d: %w", p.UserID, err)
	}
	return nil
}

// ByUserID loads the location profile for a user.
func (r *Locations) ByUserID(ctx context.Context, userID int64) (*domain.LocationProfile, error) {
	var p domain.LocationProfile
	err := r.db.GetContext(ctx, &p,
		`SELECT * FROM user_profile WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile by user %d: %w", userID, err)
	}
	return &p, nil
}
