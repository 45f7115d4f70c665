package memory

import (
	"context"
	"sort"
	"sync"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/storage"
)

// TransitionStore is an in-memory implementation of storage.TransitionStore.
// Append-only: entries are never mutated or removed.
type TransitionStore struct {
	mu   sync.RWMutex
	data []*domain.ModeTransition
}

// NewTransitionStore creates a new in-memory transition store.
func NewTransitionStore() *TransitionStore {
	return &TransitionStore{}
}

// Insert appends a transition entry.
func (s *TransitionStore) Insert(_ context.Context, t *domain.ModeTransition) error {
	if t == nil || t.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tCopy := *t
	tCopy.ActionsExecuted = append([]string(nil), t.ActionsExecuted...)
	s.data = append(s.data, &tCopy)
	return nil
}

// GetByWallet retrieves all transitions for a wallet, ordered by timestamp ASC.
func (s *TransitionStore) GetByWallet(_ context.Context, walletAddress string) ([]*domain.ModeTransition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ModeTransition
	for _, t := range s.data {
		if t.WalletAddress == walletAddress {
			tCopy := *t
			tCopy.ActionsExecuted = append([]string(nil), t.ActionsExecuted...)
			result = append(result, &tCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.TransitionStore = (*TransitionStore)(nil)
