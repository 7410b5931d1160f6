package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"homes-service/internal/database"
	"homes-service/internal/mongo"
	"homes-service/internal/repository"
	"homes-service/internal/server"
	"homes-service/internal/session"
	"homes-service/internal/store"
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := database.Migrate(ctx, a.db); err != nil {
		return err
	}

	st := store.New(
		store.Combine(map[string]store.Reducer{session.SliceKey: session.Reduce}),
		nil,
		store.Logger(a.log.Named("store")),
	)

	deps := server.Deps{
		Logger:    a.log,
		DB:        a.db,
		Store:     st,
		PublicDir: a.cfg.PublicDir,
		JWTSecret: a.cfg.JWTSecret,
	}

	if a.cfg.Data.Endpoint != "" {
		client := &http.Client{Timeout: a.cfg.FetchTimeout()}
		deps.Fetch = session.FetchData(client, a.cfg.Data.Endpoint)
	}

	if a.cfg.Mongo.URI != "" {
		client, err := mongo.NewMongoClient(ctx, a.cfg.Mongo.URI)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				a.log.Warn("mongo disconnect", zap.Error(err))
			}
		}()
		a.log.Info("connected to MongoDB", zap.String("database", a.cfg.Mongo.Database))
		deps.Photos = repository.NewPhotoRepository(client, a.cfg.Mongo.Database)
	} else {
		a.log.Info("MONGO_URI not set, photo routes disabled")
	}

	if a.cfg.JWTSecret == "" {
		a.log.Warn("JWT_SECRET not set, write routes are unauthenticated")
	}

	gin.SetMode(gin.ReleaseMode)
	return server.Run(ctx, a.cfg.Addr(), server.NewRouter(deps), a.log)
}
