package collection

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// catalogSource reports which of the given product ids are still active.
type catalogSource interface {
	ActiveIDs(ctx context.Context, ids []int) ([]int, error)
}

// inactivePruner is the store operation the reconciler drives.
type inactivePruner interface {
	RemoveInactive(ctx context.Context, userID string, activeIDs []int) error
}

// Reconciler removes ghost items (products no longer active in the
// catalog) from a user's list. Lookups are single-flight per id-set
// signature: re-checking an equivalent set, in any order, does not
// trigger another catalog call.
type Reconciler struct {
	store   inactivePruner
	catalog catalogSource
	log     *slog.Logger

	mu      sync.Mutex
	lastSig map[string]string // userID → last processed signature
}

// NewReconciler creates a Reconciler over the given store and catalog.
func NewReconciler(store inactivePruner, catalog catalogSource, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		catalog: catalog,
		log:     logger.With("service", "reconciler"),
		lastSig: make(map[string]string),
	}
}

// Reconcile checks ids against the catalog and prunes inactive ones from
// the user's list. Empty ids performs no lookup. A catalog failure is
// logged and removes nothing; the signature is not recorded, so the same
// set is retried on the next call.
func (r *Reconciler) Reconcile(ctx context.Context, userID string, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	sig := signature(ids)

	r.mu.Lock()
	if r.lastSig[userID] == sig {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	active, err := r.catalog.ActiveIDs(ctx, ids)
	if err != nil {
		r.log.ErrorContext(ctx, "active-id lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return err
	}

	r.mu.Lock()
	r.lastSig[userID] = sig
	r.mu.Unlock()

	activeSet := make(map[int]struct{}, len(active))
	for _, id := range active {
		activeSet[id] = struct{}{}
	}

	inactive := 0
	for _, id := range ids {
		if _, ok := activeSet[id]; !ok {
			inactive++
		}
	}
	if inactive == 0 {
		return nil
	}

	if err := r.store.RemoveInactive(ctx, userID, active); err != nil {
		return err
	}

	r.log.InfoContext(ctx, "ghost items pruned",
		slog.String("user_id", userID),
		slog.Int("count", inactive),
	)
	return nil
}

// signature canonicalizes an id set: sorted ids joined, so [1,2,3] and
// [3,2,1] are the same request.
func signature(ids []int) string {
	sorted := make([]int, len(ids))
	copy(sorted, ids)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
