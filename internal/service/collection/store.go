// Package collection implements the per-user bounded collection stores
// (cart, wishlist, recently viewed): ordered, deduplicated-by-id product
// lists with write-through snapshot persistence and per-user isolation.
package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stridewear/shop-backend/internal/domain"
)

// SnapshotStore is the durable-storage port. Load reports found=false when
// no snapshot exists under the key; Save overwrites the whole blob.
type SnapshotStore interface {
	Load(ctx context.Context, key string) (blob []byte, found bool, err error)
	Save(ctx context.Context, key string, blob []byte) error
}

// snapshotVersion is bumped together with the storage key suffix on
// breaking shape changes. Snapshots that fail to decode are discarded;
// key versioning is the migration strategy.
const snapshotVersion = 2

type snapshot struct {
	State   snapshotState `json:"state"`
	Version int           `json:"version"`
}

type snapshotState struct {
	ByUser map[string][]domain.CardProduct `json:"byUser"`
}

// Store maintains, per user, an ordered list of CardProduct records with
// most-recently-added first. Items are deduplicated by product id. Every
// state-changing operation synchronously persists the full state; the
// documented no-op conditions leave storage untouched.
type Store struct {
	key     string
	max     int // 0 = unbounded
	storage SnapshotStore
	log     *slog.Logger

	mu     sync.Mutex
	byUser map[string][]domain.CardProduct
}

// NewStore creates a store persisted under "<name>-v2" and rehydrates its
// state from storage. max bounds each user's list (0 = unbounded); when
// exceeded, the oldest (tail) entry is evicted.
func NewStore(ctx context.Context, name string, max int, storage SnapshotStore, logger *slog.Logger) (*Store, error) {
	s := &Store{
		key:     name + "-v2",
		max:     max,
		storage: storage,
		log:     logger.With("store", name),
		byUser:  make(map[string][]domain.CardProduct),
	}

	blob, found, err := storage.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", s.key, err)
	}
	if found {
		var snap snapshot
		if err := json.Unmarshal(blob, &snap); err != nil || snap.State.ByUser == nil {
			// A pre-v2 or corrupt blob under this key. Start empty; the
			// next mutation overwrites it with the current shape.
			s.log.Warn("discarding undecodable snapshot", slog.String("key", s.key))
		} else {
			s.byUser = snap.State.ByUser
		}
	}

	return s, nil
}

// Key returns the storage key the store persists under.
func (s *Store) Key() string { return s.key }

// Add prepends the product to the user's list. If a record with the same
// id is already present the call is a no-op, including persistence: the
// existing record is kept even when other fields differ. For bounded
// stores the oldest entries are evicted past the max.
func (s *Store) Add(ctx context.Context, userID string, p domain.CardProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byUser[userID]
	for _, existing := range list {
		if existing.ID == p.ID {
			return nil
		}
	}

	list = append([]domain.CardProduct{p}, list...)
	if s.max > 0 && len(list) > s.max {
		list = list[:s.max]
	}
	s.byUser[userID] = list

	return s.persist(ctx)
}

// Remove deletes the product with the given id from the user's list.
// A user with no list at all is a no-op and does not write to storage.
func (s *Store) Remove(ctx context.Context, userID string, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.byUser[userID]
	if !ok {
		return nil
	}

	kept := make([]domain.CardProduct, 0, len(list))
	for _, p := range list {
		if p.ID != productID {
			kept = append(kept, p)
		}
	}
	s.byUser[userID] = kept

	return s.persist(ctx)
}

// Clear resets the user's list to empty. The user's key remains present,
// which is a distinct state from "never had a list". A user with no list
// is a no-op and does not write to storage.
func (s *Store) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUser[userID]; !ok {
		return nil
	}
	s.byUser[userID] = []domain.CardProduct{}

	return s.persist(ctx)
}

// RemoveInactive retains only entries whose id is in activeIDs. An empty
// activeIDs means "don't know what's active", not "nothing is active":
// the call is a no-op and does not write. Same for a user with no list.
func (s *Store) RemoveInactive(ctx context.Context, userID string, activeIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.byUser[userID]
	if !ok || len(activeIDs) == 0 {
		return nil
	}

	active := make(map[int]struct{}, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = struct{}{}
	}

	kept := make([]domain.CardProduct, 0, len(list))
	for _, p := range list {
		if _, ok := active[p.ID]; ok {
			kept = append(kept, p)
		}
	}
	s.byUser[userID] = kept

	return s.persist(ctx)
}

// List returns a copy of the user's list, most recently added first.
// A user with no list yields an empty slice.
func (s *Store) List(ctx context.Context, userID string) []domain.CardProduct {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byUser[userID]
	out := make([]domain.CardProduct, len(list))
	copy(out, list)
	return out
}

// UserIDs returns every user id with a list (including cleared, empty ones).
func (s *Store) UserIDs(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.byUser))
	for id := range s.byUser {
		ids = append(ids, id)
	}
	return ids
}

// persist writes the whole state under the store key. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	blob, err := json.Marshal(snapshot{
		State:   snapshotState{ByUser: s.byUser},
		Version: snapshotVersion,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", s.key, err)
	}
	if err := s.storage.Save(ctx, s.key, blob); err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.key, err)
	}
	return nil
}
