// Package memory provides an in-memory SnapshotStore used in tests and
// as a fallback when no database is configured.
package memory

import (
	"context"
	"sync"
)

// Store is a map-backed snapshot store. It copies blobs on both Load and
// Save so callers can't alias internal state. Writes counts Save calls,
// which tests use to assert the no-op/no-write contract.
type Store struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	writes map[string]int
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		blobs:  make(map[string][]byte),
		writes: make(map[string]int),
	}
}

// Load returns the blob stored under key. found is false when absent.
func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, true, nil
}

// Save overwrites the blob under key.
func (s *Store) Save(_ context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(blob))
	copy(stored, blob)
	s.blobs[key] = stored
	s.writes[key]++
	return nil
}

// Seed stores a blob without counting it as a write.
func (s *Store) Seed(key string, blob []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(blob))
	copy(stored, blob)
	s.blobs[key] = stored
}

// Writes returns how many times Save was called for key.
func (s *Store) Writes(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[key]
}

// Raw returns the current blob for key (nil when absent), for
// byte-identity assertions in tests.
func (s *Store) Raw(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.blobs[key]
	if !ok {
		return nil
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out
}
