package storage

import (
	"context"
	"time"

	"agent-control-plane/internal/domain"
)

// AgentStore provides access to agent records.
type AgentStore interface {
	// Insert adds a new agent. Returns ErrDuplicateKey if agent_id exists.
	Insert(ctx context.Context, a *domain.AgentRecord) error

	// GetByID retrieves an agent by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, agentID string) (*domain.AgentRecord, error)

	// GetByUser retrieves all agents owned by a user, ordered by created_at ASC.
	GetByUser(ctx context.Context, userID string) ([]*domain.AgentRecord, error)

	// GetAll retrieves all agents.
	GetAll(ctx context.Context) ([]*domain.AgentRecord, error)

	// Update replaces an existing record. Returns ErrNotFound if not exists.
	Update(ctx context.Context, a *domain.AgentRecord) error
}

// PermissionStore provides access to wallet permission grants.
type PermissionStore interface {
	// Insert adds a new permission. Returns ErrDuplicateKey if permission_id exists.
	Insert(ctx context.Context, p *domain.WalletPermission) error

	// GetByID retrieves a permission by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, permissionID string) (*domain.WalletPermission, error)

	// GetActiveByAgent retrieves the active permission for an agent.
	// Returns ErrNotFound if the agent has no active permission.
	GetActiveByAgent(ctx context.Context, agentID string) (*domain.WalletPermission, error)

	// GetAll retrieves all permissions.
	GetAll(ctx context.Context) ([]*domain.WalletPermission, error)

	// SetInactive flips is_active to false. Returns ErrNotFound if not exists.
	SetInactive(ctx context.Context, permissionID string) error

	// Revoke flips is_active to false and stamps revoked_at.
	// Returns ErrNotFound if not exists.
	Revoke(ctx context.Context, permissionID string, at time.Time) error
}

// UsageStore holds rolling spend counters keyed by (permission_id, period key).
// Period keys roll over implicitly; stale keys are simply never read again.
type UsageStore interface {
	// Add increments the counter for a key and returns the new total.
	Add(ctx context.Context, key string, amount float64) (float64, error)

	// Get returns the counter for a key, 0 if absent.
	Get(ctx context.Context, key string) (float64, error)
}

// PositionStore provides access to open positions.
type PositionStore interface {
	// Insert adds a new position. Returns ErrDuplicateKey if position_id exists.
	Insert(ctx context.Context, p *domain.Position) error

	// GetByAgent retrieves all open positions for an agent, ordered by opened_at ASC.
	GetByAgent(ctx context.Context, agentID string) ([]*domain.Position, error)

	// Delete removes a position. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, positionID string) error

	// DeleteByAgent removes all positions for an agent and returns the
	// removed positions (used to snapshot state during an agent kill).
	DeleteByAgent(ctx context.Context, agentID string) ([]*domain.Position, error)
}

// TransitionStore is the append-only survival-mode transition history.
type TransitionStore interface {
	// Insert appends a transition entry.
	Insert(ctx context.Context, t *domain.ModeTransition) error

	// GetByWallet retrieves all transitions for a wallet, ordered by timestamp ASC.
	GetByWallet(ctx context.Context, walletAddress string) ([]*domain.ModeTransition, error)
}

// ExecutionStore is the append-only execution result audit trail.
type ExecutionStore interface {
	// Insert appends an execution result.
	Insert(ctx context.Context, r *domain.ExecutionResult) error

	// GetByAgent retrieves all results for an agent, ordered by executed_at ASC.
	GetByAgent(ctx context.Context, agentID string) ([]*domain.ExecutionResult, error)
}
