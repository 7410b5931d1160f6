package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"homes-service/internal/model"
)

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Insert saves a new review, filling in its ID and CreatedAt.
func (r *ReviewRepository) Insert(ctx context.Context, review *model.Review) error {
	review.ID = uuid.NewString()
	review.CreatedAt = model.Timestamp(time.Now())

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO reviews (id, home_id, user_id, rating, comment, created_at)
		VALUES (:id, :home_id, :user_id, :rating, :comment, :created_at)
	`, review)
	if err != nil {
		return fmt.Errorf("ReviewRepository.Insert: %w", err)
	}
	return nil
}

// FindByHome returns all reviews of a home, newest first.
func (r *ReviewRepository) FindByHome(ctx context.Context, homeID string) ([]model.Review, error) {
	const q = `
		SELECT id, home_id, user_id, rating, comment, created_at
		FROM reviews
		WHERE home_id = ?
		ORDER BY created_at DESC
	`
	reviews := []model.Review{}
	if err := r.db.SelectContext(ctx, &reviews, r.db.Rebind(q), homeID); err != nil {
		return nil, fmt.Errorf("ReviewRepository.FindByHome: %w", err)
	}
	return reviews, nil
}

// RecalcAverage sets homes.rating to the mean review rating, or NULL when
// the home has no reviews.
func (r *ReviewRepository) RecalcAverage(ctx context.Context, homeID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReviewRepository.RecalcAverage: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var avg sql.NullFloat64
	if err := tx.GetContext(ctx, &avg, tx.Rebind(`SELECT AVG(rating) FROM reviews WHERE home_id = ?`), homeID); err != nil {
		return fmt.Errorf("ReviewRepository.RecalcAverage: get avg: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE homes SET rating = ? WHERE id = ?`), avg, homeID); err != nil {
		return fmt.Errorf("ReviewRepository.RecalcAverage: update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ReviewRepository.RecalcAverage: commit: %w", err)
	}
	return nil
}
