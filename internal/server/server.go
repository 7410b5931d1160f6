// Package server assembles the HTTP surface: the JSON API under /api,
// static assets, and the index.html fallback for client-side routes.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"homes-service/internal/handler"
	"homes-service/internal/middleware"
	"homes-service/internal/repository"
	"homes-service/internal/service"
	"homes-service/internal/store"
)

const (
	apiPrefix       = "/api"
	indexDocument   = "index.html"
	shutdownTimeout = 5 * time.Second
)

// Deps is everything the router needs. Photos and Fetch are optional.
type Deps struct {
	Logger    *zap.Logger
	DB        *sqlx.DB
	Store     *store.Store
	PublicDir string
	JWTSecret string
	Photos    handler.PhotoStore
	Fetch     store.Thunk
}

// NewRouter builds the gin engine.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestLogger(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.ErrorHandler(d.Logger),
	)

	homeRepo := repository.NewHomeRepository(d.DB)
	reviewSvc := service.NewReviewService(repository.NewReviewRepository(d.DB), homeRepo)

	write := middleware.JWTAuth(d.JWTSecret)
	admin := middleware.JWTAuth(d.JWTSecret, "ADMIN")

	api := r.Group(apiPrefix)
	(&handler.HomeHandler{Repo: homeRepo}).RegisterRoutes(api, write, admin)
	handler.NewReviewHandler(reviewSvc).RegisterRoutes(api, write)
	(&handler.StateHandler{Store: d.Store, Fetch: d.Fetch}).RegisterRoutes(api)
	if d.Photos != nil {
		(&handler.PhotoHandler{Photos: d.Photos, Homes: homeRepo}).RegisterRoutes(api, write)
	}

	r.NoRoute(fallback(d.PublicDir))
	return r
}

// fallback serves files from publicDir, then index.html for any other
// GET, and a 404 error for unmatched API routes.
func fallback(publicDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == apiPrefix || strings.HasPrefix(p, apiPrefix+"/") {
			_ = c.Error(middleware.NotFound("Not found!"))
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			_ = c.Error(middleware.NotFound("Not found!"))
			return
		}

		// path.Clean on a rooted path drops any "..", keeping lookups inside publicDir.
		name := filepath.Join(publicDir, filepath.FromSlash(path.Clean("/"+p)))
		if fi, err := os.Stat(name); err == nil && fi.Mode().IsRegular() {
			c.File(name)
			return
		}

		index := filepath.Join(publicDir, indexDocument)
		if _, err := os.Stat(index); err != nil {
			_ = c.Error(middleware.NotFound("Not found!"))
			return
		}
		c.File(index)
	}
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
