package memory

import (
	"context"
	"sort"
	"sync"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/storage"
)

// ExecutionStore is an in-memory implementation of storage.ExecutionStore.
// Append-only audit trail of execution results.
type ExecutionStore struct {
	mu   sync.RWMutex
	data []*domain.ExecutionResult
}

// NewExecutionStore creates a new in-memory execution store.
func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{}
}

// Insert appends an execution result.
func (s *ExecutionStore) Insert(_ context.Context, r *domain.ExecutionResult) error {
	if r == nil || r.AgentID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rCopy := *r
	s.data = append(s.data, &rCopy)
	return nil
}

// GetByAgent retrieves all results for an agent, ordered by executed_at ASC.
func (s *ExecutionStore) GetByAgent(_ context.Context, agentID string) ([]*domain.ExecutionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ExecutionResult
	for _, r := range s.data {
		if r.AgentID == agentID {
			rCopy := *r
			result = append(result, &rCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ExecutedAt.Before(result[j].ExecutedAt)
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.ExecutionStore = (*ExecutionStore)(nil)
