package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"homes-service/internal/model"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

const homeColumns = `id, name, location, description, image_url, rating, price, photo_file_id, created_at, updated_at`

type HomeRepository struct {
	DB *sqlx.DB
}

func NewHomeRepository(db *sqlx.DB) *HomeRepository {
	return &HomeRepository{DB: db}
}

// HomeFilter narrows List. Empty Location and nil prices are not applied;
// Limit must be positive.
type HomeFilter struct {
	Location string
	MinPrice *float64
	MaxPrice *float64
	Limit    int
	Offset   int
}

// Create inserts a home. The caller sets ID and timestamps.
func (r *HomeRepository) Create(ctx context.Context, h *model.Home) error {
	_, err := r.DB.NamedExecContext(ctx, `
		INSERT INTO homes (`+homeColumns+`)
		VALUES (:id, :name, :location, :description, :image_url, :rating, :price, :photo_file_id, :created_at, :updated_at)
	`, h)
	if err != nil {
		return fmt.Errorf("HomeRepository.Create: %w", err)
	}
	return nil
}

func (r *HomeRepository) GetByID(ctx context.Context, id string) (*model.Home, error) {
	var h model.Home
	err := r.DB.GetContext(ctx, &h, r.DB.Rebind(`SELECT `+homeColumns+` FROM homes WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("HomeRepository.GetByID %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("HomeRepository.GetByID: %w", err)
	}
	return &h, nil
}

// List returns homes matching f, newest first.
func (r *HomeRepository) List(ctx context.Context, f HomeFilter) ([]model.Home, error) {
	query := `SELECT ` + homeColumns + ` FROM homes WHERE 1=1`
	args := []interface{}{}

	if f.Location != "" {
		query += " AND location = ?"
		args = append(args, f.Location)
	}
	if f.MinPrice != nil {
		query += " AND price >= ?"
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query += " AND price <= ?"
		args = append(args, *f.MaxPrice)
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	homes := []model.Home{}
	if err := r.DB.SelectContext(ctx, &homes, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("HomeRepository.List: %w", err)
	}
	return homes, nil
}

// Update overwrites the editable fields of h. The rating is owned by
// ReviewRepository.RecalcAverage and is left as stored.
func (r *HomeRepository) Update(ctx context.Context, h *model.Home) error {
	res, err := r.DB.NamedExecContext(ctx, `
		UPDATE homes SET
			name        = :name,
			location    = :location,
			description = :description,
			image_url   = :image_url,
			price       = :price,
			updated_at  = :updated_at
		WHERE id = :id
	`, h)
	if err != nil {
		return fmt.Errorf("HomeRepository.Update: %w", err)
	}
	return expectRow(res, "HomeRepository.Update", h.ID)
}

func (r *HomeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM homes WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("HomeRepository.Delete: %w", err)
	}
	return expectRow(res, "HomeRepository.Delete", id)
}

func (r *HomeRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(`SELECT COUNT(1) FROM homes WHERE id = ?`), id); err != nil {
		return false, fmt.Errorf("HomeRepository.Exists: %w", err)
	}
	return count > 0, nil
}

func (r *HomeRepository) UpdatePhotoFileID(ctx context.Context, id, fileID string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE homes SET photo_file_id = ? WHERE id = ?`), fileID, id)
	if err != nil {
		return fmt.Errorf("HomeRepository.UpdatePhotoFileID: %w", err)
	}
	return expectRow(res, "HomeRepository.UpdatePhotoFileID", id)
}

func expectRow(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	}
	return nil
}
