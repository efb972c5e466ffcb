package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"stylebot/internal/domain"
)

// Photos accesses the append-only photos table.
type Photos struct {
	db *sqlx.DB
}

// NewPhotos constructs the photos repository.
func NewPhotos(db *sqlx.DB) *Photos { return &Photos{db: db} }

// Insert persists a photo reference.
func (r *Photos) Insert(ctx context.Context, p *domain.Photo) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO photos (user_id, tg_file_id)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		p.UserID, p.TgFileID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("photo insert user %d: %w", p.UserID, err)
	}
	return nil
}

// Count returns the total number of stored photos.
func (r *Photos) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT count(*) FROM photos`); err != nil {
		return 0, fmt.Errorf("photos count: %w", err)
	}
	return n, nil
}
