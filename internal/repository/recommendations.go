package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"stylebot/internal/domain"
)

// Recommendations accesses the append-only recommendations table.
type Recommendations struct {
	db *sqlx.DB
}

// NewRecommendations constructs the recommendations repository.
func NewRecommendations(db *sqlx.DB) *Recommendations { return &Recommendations{db: db} }

// Insert persists a recommendation using q, which may be an open transaction;
// a nil q falls back to the pool.
func (r *Recommendations) Insert(ctx context.Context, q sqlx.ExtContext, rec *domain.Recommendation) error {
	if q == nil {
		q = r.db
	}
	err := sqlx.GetContext(ctx, q, rec,
		`INSERT INTO recommendations (user_id, preference_id, weather_summary, message_text)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, user_id, preference_id, weather_summary, message_text`,
		rec.UserID, rec.PreferenceID, rec.WeatherSummary, rec.MessageText)
	if err != nil {
		return fmt.Errorf("recommendation insert user %d: %w", rec.UserID, err)
	}
	return nil
}

// LastByUser returns up to limit most recent recommendations for a user.
func (r *Recommendations) LastByUser(ctx context.Context, userID int64, limit int) ([]domain.Recommendation, error) {
	var recs []domain.Recommendation
	err := r.db.SelectContext(ctx, &recs,
		`SELECT * FROM recommendations
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recommendations for user %d: %w", userID, err)
	}
	return recs, nil
}

// Count returns the total number of stored recommendations.
func (r *Recommendations) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT count(*) FROM recommendations`); err != nil {
		return 0, fmt.Errorf("recommendations count: %w", err)
	}
	return n, nil
}
