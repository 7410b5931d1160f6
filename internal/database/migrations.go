package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// The statements are valid for both Postgres and SQLite.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS homes (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		location      TEXT NOT NULL,
		description   TEXT,
		image_url     TEXT NOT NULL DEFAULT 'http://i.imgur.com/3BrMZK8.png',
		rating        DOUBLE PRECISION,
		price         DOUBLE PRECISION NOT NULL,
		photo_file_id TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id         TEXT PRIMARY KEY,
		home_id    TEXT NOT NULL REFERENCES homes(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL,
		rating     INTEGER NOT NULL,
		comment    TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS reviews_home_id_idx ON reviews (home_id)`,
	`CREATE INDEX IF NOT EXISTS homes_created_at_idx ON homes (created_at)`,
}

// Migrate creates any missing tables and indexes. It is safe to run on
// every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("database.Migrate: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database.Migrate: step %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database.Migrate: commit: %w", err)
	}
	return nil
}
