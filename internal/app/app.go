package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/stridewear/shop-backend/internal/adapter/catalog"
	"github.com/stridewear/shop-backend/internal/adapter/postgres"
	"github.com/stridewear/shop-backend/internal/adapter/provider/anthropic"
	snapshotpg "github.com/stridewear/shop-backend/internal/adapter/storage/postgres"
	"github.com/stridewear/shop-backend/internal/config"
	"github.com/stridewear/shop-backend/internal/service/aifilter"
	"github.com/stridewear/shop-backend/internal/service/collection"
	"github.com/stridewear/shop-backend/internal/transport/middleware"
	"github.com/stridewear/shop-backend/internal/transport/rest"
	"github.com/stridewear/shop-backend/migrations"
)

// Run is the application entry point. It loads configuration, connects to
// the database, applies migrations, rehydrates the collection stores, and
// serves HTTP until ctx is canceled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := migrate(cfg.Database.DSN); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	snapshots := snapshotpg.New(pool)
	catalogRepo := catalog.New(pool)

	cart, err := collection.NewStore(ctx, "cart-storage", 0, snapshots, logger)
	if err != nil {
		return fmt.Errorf("init cart store: %w", err)
	}
	wishlist, err := collection.NewStore(ctx, "wishlist-storage", 0, snapshots, logger)
	if err != nil {
		return fmt.Errorf("init wishlist store: %w", err)
	}
	recent, err := collection.NewStore(ctx, "recently-viewed-products", cfg.Store.RecentlyViewedMax, snapshots, logger)
	if err != nil {
		return fmt.Errorf("init recently viewed store: %w", err)
	}

	reconciler := collection.NewReconciler(recent, catalogRepo, logger)

	aiClient := anthropic.New(cfg.AI)
	filterSvc := aifilter.NewService(aiClient, catalogRepo, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
	defer limiter.Stop()

	handler := buildRouter(cfg, logger, limiter, routerDeps{
		cart:     rest.NewCollectionHandler("cart", cart, nil, logger),
		wishlist: rest.NewCollectionHandler("wishlist", wishlist, nil, logger),
		recent:   rest.NewCollectionHandler("recently-viewed", recent, reconciler, logger),
		ai:       rest.NewAIHandler(filterSvc, logger),
		health:   rest.NewHealthHandler(pool, BuildVersion()),
		aiPerMin: cfg.RateLimit.AIRequestsPerMinute,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type routerDeps struct {
	cart     *rest.CollectionHandler
	wishlist *rest.CollectionHandler
	recent   *rest.CollectionHandler
	ai       *rest.AIHandler
	health   *rest.HealthHandler
	aiPerMin int
}

func buildRouter(cfg *config.Config, logger *slog.Logger, limiter *middleware.RateLimiter, deps routerDeps) http.Handler {
	mux := http.NewServeMux()

	mountCollection(mux, "cart", deps.cart)
	mountCollection(mux, "wishlist", deps.wishlist)
	mountCollection(mux, "recently-viewed", deps.recent)

	aiLimit := limiter.Limit(deps.aiPerMin)
	mux.Handle("POST /api/ai/filters", aiLimit(http.HandlerFunc(deps.ai.Filters)))
	mux.Handle("POST /api/ai/description", aiLimit(http.HandlerFunc(deps.ai.Description)))

	mux.HandleFunc("GET /health", deps.health.Health)
	mux.HandleFunc("GET /health/live", deps.health.Live)
	mux.HandleFunc("GET /health/ready", deps.health.Ready)

	chain := middleware.Chain(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
	)
	return chain(mux)
}

func mountCollection(mux *http.ServeMux, name string, h *rest.CollectionHandler) {
	base := "/api/" + name
	mux.HandleFunc("GET "+base+"/{userID}", h.List)
	mux.HandleFunc("POST "+base+"/{userID}", h.Add)
	mux.HandleFunc("DELETE "+base+"/{userID}", h.Clear)
	mux.HandleFunc("DELETE "+base+"/{userID}/items/{productID}", h.Remove)
	mux.HandleFunc("POST "+base+"/{userID}/reconcile", h.Reconcile)
}

func migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}
