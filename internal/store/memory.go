// Package store provides implementations of the domain entry store.
package store

import (
	"context"
	"sync"

	"example.com/carbonbuddy/internal/domain"
)

// InMemoryStore keeps per-user entry logs in process memory. The single
// lock serializes appends so concurrent writes for one user can never lose
// an entry; reads copy the slice so callers see a stable snapshot.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]domain.ActivityEntry
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string][]domain.ActivityEntry)}
}

// Append implements domain.EntryStore.
func (s *InMemoryStore) Append(ctx context.Context, userID string, entry domain.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[userID] = append(s.entries[userID], entry)
	return nil
}

// ListByUser returns the user's entries in insertion order.
func (s *InMemoryStore) ListByUser(ctx context.Context, userID string) ([]domain.ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slice := s.entries[userID]
	if len(slice) == 0 {
		return nil, nil
	}
	out := make([]domain.ActivityEntry, len(slice))
	copy(out, slice)
	return out, nil
}
