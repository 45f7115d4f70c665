package memory

import (
	"context"
	"sort"
	"sync"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Position // keyed by position_id
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.Position),
	}
}

// Insert adds a new position. Returns ErrDuplicateKey if position_id exists.
func (s *PositionStore) Insert(_ context.Context, p *domain.Position) error {
	if p == nil || p.PositionID == "" || p.AgentID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PositionID]; exists {
		return storage.ErrDuplicateKey
	}

	posCopy := *p
	s.data[p.PositionID] = &posCopy
	return nil
}

// GetByAgent retrieves all open positions for an agent, ordered by opened_at ASC.
func (s *PositionStore) GetByAgent(_ context.Context, agentID string) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if p.AgentID == agentID {
			posCopy := *p
			result = append(result, &posCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OpenedAt.Before(result[j].OpenedAt)
	})

	return result, nil
}

// Delete removes a position. Returns ErrNotFound if not exists.
func (s *PositionStore) Delete(_ context.Context, positionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[positionID]; !exists {
		return storage.ErrNotFound
	}

	delete(s.data, positionID)
	return nil
}

// DeleteByAgent removes all positions for an agent and returns the removed
// positions ordered by opened_at ASC.
func (s *PositionStore) DeleteByAgent(_ context.Context, agentID string) ([]*domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []*domain.Position
	for id, p := range s.data {
		if p.AgentID == agentID {
			posCopy := *p
			removed = append(removed, &posCopy)
			delete(s.data, id)
		}
	}

	sort.Slice(removed, func(i, j int) bool {
		return removed[i].OpenedAt.Before(removed[j].OpenedAt)
	})

	return removed, nil
}

// Verify interface compliance at compile time.
var _ storage.PositionStore = (*PositionStore)(nil)
