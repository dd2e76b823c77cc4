// Command prune-ghosts removes products that are no longer active in the
// catalog from every user's saved collections. It is intended to be invoked
// by an external cron job, not as an in-process goroutine.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/stridewear/shop-backend/internal/adapter/catalog"
	"github.com/stridewear/shop-backend/internal/adapter/postgres"
	snapshotpg "github.com/stridewear/shop-backend/internal/adapter/storage/postgres"
	"github.com/stridewear/shop-backend/internal/app"
	"github.com/stridewear/shop-backend/internal/config"
	"github.com/stridewear/shop-backend/internal/service/collection"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	snapshots := snapshotpg.New(pool)
	catalogRepo := catalog.New(pool)

	stores := []struct {
		name string
		max  int
	}{
		{"cart-storage", 0},
		{"wishlist-storage", 0},
		{"recently-viewed-products", cfg.Store.RecentlyViewedMax},
	}

	failed := false
	for _, s := range stores {
		pruned, err := pruneStore(ctx, s.name, s.max, snapshots, catalogRepo, logger)
		if err != nil {
			logger.Error("prune failed",
				slog.String("store", s.name),
				slog.String("error", err.Error()),
			)
			failed = true
			continue
		}
		logger.Info("prune completed",
			slog.String("store", s.name),
			slog.Int("removed", pruned),
		)
	}
	if failed {
		os.Exit(1)
	}
}

func pruneStore(ctx context.Context, name string, max int, snapshots collection.SnapshotStore, catalogRepo *catalog.Repo, logger *slog.Logger) (int, error) {
	store, err := collection.NewStore(ctx, name, max, snapshots, logger)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, userID := range store.UserIDs(ctx) {
		items := store.List(ctx, userID)
		if len(items) == 0 {
			continue
		}

		ids := make([]int, 0, len(items))
		for _, p := range items {
			ids = append(ids, p.ID)
		}

		active, err := catalogRepo.ActiveIDs(ctx, ids)
		if err != nil {
			return removed, err
		}
		if len(active) == len(ids) {
			continue
		}

		// RemoveInactive treats an empty active list as a no-op, so a list
		// where every product went inactive has to be cleared instead.
		if len(active) == 0 {
			err = store.Clear(ctx, userID)
		} else {
			err = store.RemoveInactive(ctx, userID, active)
		}
		if err != nil {
			return removed, err
		}
		removed += len(ids) - len(active)
	}
	return removed, nil
}
