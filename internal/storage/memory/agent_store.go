package memory

import (
	"context"
	"sort"
	"sync"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/storage"
)

// AgentStore is an in-memory implementation of storage.AgentStore.
type AgentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AgentRecord // keyed by agent_id
}

// NewAgentStore creates a new in-memory agent store.
func NewAgentStore() *AgentStore {
	return &AgentStore{
		data: make(map[string]*domain.AgentRecord),
	}
}

// Insert adds a new agent. Returns ErrDuplicateKey if agent_id exists.
func (s *AgentStore) Insert(_ context.Context, a *domain.AgentRecord) error {
	if a == nil || a.AgentID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.AgentID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	agentCopy := *a
	s.data[a.AgentID] = &agentCopy
	return nil
}

// GetByID retrieves an agent by its ID. Returns ErrNotFound if not exists.
func (s *AgentStore) GetByID(_ context.Context, agentID string) (*domain.AgentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[agentID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	agentCopy := *a
	return &agentCopy, nil
}

// GetByUser retrieves all agents owned by a user, ordered by created_at ASC.
func (s *AgentStore) GetByUser(_ context.Context, userID string) ([]*domain.AgentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AgentRecord
	for _, a := range s.data {
		if a.UserID == userID {
			agentCopy := *a
			result = append(result, &agentCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// GetAll retrieves all agents.
func (s *AgentStore) GetAll(_ context.Context) ([]*domain.AgentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.AgentRecord, 0, len(s.data))
	for _, a := range s.data {
		agentCopy := *a
		result = append(result, &agentCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// Update replaces an existing record. Returns ErrNotFound if not exists.
func (s *AgentStore) Update(_ context.Context, a *domain.AgentRecord) error {
	if a == nil || a.AgentID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.AgentID]; !exists {
		return storage.ErrNotFound
	}

	agentCopy := *a
	s.data[a.AgentID] = &agentCopy
	return nil
}

// Verify interface compliance at compile time.
var _ storage.AgentStore = (*AgentStore)(nil)
