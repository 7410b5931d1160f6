package cli

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"homes-service/internal/config"
	"homes-service/internal/database"
	"homes-service/internal/logging"
)

// app is what every subcommand starts from.
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *sqlx.DB
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("db connect error: %w", err)
	}
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("closing database", zap.Error(err))
	}
	_ = a.log.Sync()
}
