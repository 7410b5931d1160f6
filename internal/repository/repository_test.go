package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"homes-service/internal/database"
	"homes-service/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newHome(name, location string, price float64, created time.Time) *model.Home {
	h := &model.Home{
		ID:        uuid.NewString(),
		Name:      name,
		Location:  location,
		Price:     price,
		CreatedAt: model.Timestamp(created),
		UpdatedAt: model.Timestamp(created),
	}
	h.ApplyDefaults()
	return h
}
