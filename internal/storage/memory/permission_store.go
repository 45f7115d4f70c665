package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/storage"
)

// PermissionStore is an in-memory implementation of storage.PermissionStore.
type PermissionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WalletPermission // keyed by permission_id
}

// NewPermissionStore creates a new in-memory permission store.
func NewPermissionStore() *PermissionStore {
	return &PermissionStore{
		data: make(map[string]*domain.WalletPermission),
	}
}

// Insert adds a new permission. Returns ErrDuplicateKey if permission_id exists.
func (s *PermissionStore) Insert(_ context.Context, p *domain.WalletPermission) error {
	if p == nil || p.PermissionID == "" || p.AgentID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PermissionID]; exists {
		return storage.ErrDuplicateKey
	}

	permCopy := clonePermission(p)
	s.data[p.PermissionID] = permCopy
	return nil
}

// GetByID retrieves a permission by its ID. Returns ErrNotFound if not exists.
func (s *PermissionStore) GetByID(_ context.Context, permissionID string) (*domain.WalletPermission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[permissionID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return clonePermission(p), nil
}

// GetActiveByAgent retrieves the active permission for an agent.
// Returns ErrNotFound if the agent has no active permission.
func (s *PermissionStore) GetActiveByAgent(_ context.Context, agentID string) (*domain.WalletPermission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.data {
		if p.AgentID == agentID && p.IsActive {
			return clonePermission(p), nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetAll retrieves all permissions.
func (s *PermissionStore) GetAll(_ context.Context) ([]*domain.WalletPermission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.WalletPermission, 0, len(s.data))
	for _, p := range s.data {
		result = append(result, clonePermission(p))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// SetInactive flips is_active to false. Returns ErrNotFound if not exists.
func (s *PermissionStore) SetInactive(_ context.Context, permissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[permissionID]
	if !exists {
		return storage.ErrNotFound
	}

	p.IsActive = false
	return nil
}

// Revoke flips is_active to false and stamps revoked_at.
// Returns ErrNotFound if not exists.
func (s *PermissionStore) Revoke(_ context.Context, permissionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[permissionID]
	if !exists {
		return storage.ErrNotFound
	}

	p.IsActive = false
	revokedAt := at
	p.RevokedAt = &revokedAt
	return nil
}

// clonePermission deep-copies a permission including its slice fields.
func clonePermission(p *domain.WalletPermission) *domain.WalletPermission {
	permCopy := *p
	permCopy.AllowedActions = append([]domain.PermissionAction(nil), p.AllowedActions...)
	if p.RevokedAt != nil {
		revokedAt := *p.RevokedAt
		permCopy.RevokedAt = &revokedAt
	}
	return &permCopy
}

// Verify interface compliance at compile time.
var _ storage.PermissionStore = (*PermissionStore)(nil)
