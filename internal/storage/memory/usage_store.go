package memory

import (
	"context"
	"sync"

	"agent-control-plane/internal/storage"
)

// UsageStore is an in-memory implementation of storage.UsageStore.
// Keys roll over with the calendar; stale keys are never read again and are
// kept until process restart.
type UsageStore struct {
	mu   sync.RWMutex
	data map[string]float64
}

// NewUsageStore creates a new in-memory usage store.
func NewUsageStore() *UsageStore {
	return &UsageStore{
		data: make(map[string]float64),
	}
}

// Add increments the counter for a key and returns the new total.
func (s *UsageStore) Add(_ context.Context, key string, amount float64) (float64, error) {
	if key == "" {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] += amount
	return s.data[key], nil
}

// Get returns the counter for a key, 0 if absent.
func (s *UsageStore) Get(_ context.Context, key string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data[key], nil
}

// Verify interface compliance at compile time.
var _ storage.UsageStore = (*UsageStore)(nil)
