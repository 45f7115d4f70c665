package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/storage"
)

// PermissionStore implements storage.PermissionStore using PostgreSQL.
type PermissionStore struct {
	pool *Pool
}

// NewPermissionStore creates a new PermissionStore.
func NewPermissionStore(pool *Pool) *PermissionStore {
	return &PermissionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PermissionStore = (*PermissionStore)(nil)

const permissionColumns = `
	permission_id, agent_id, wallet_address, is_active, allowed_actions,
	max_transaction_value, daily_limit, weekly_limit, requires_approval, approval_threshold,
	expires_at, created_at, revoked_at
`

// Insert adds a new permission. Returns ErrDuplicateKey if permission_id exists.
func (s *PermissionStore) Insert(ctx context.Context, p *domain.WalletPermission) error {
	query := `
		INSERT INTO wallet_permissions (` + permissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.pool.Exec(ctx, query,
		p.PermissionID,
		p.AgentID,
		p.WalletAddress,
		p.IsActive,
		actionsToStrings(p.AllowedActions),
		p.Limits.MaxTransactionValue,
		p.Limits.DailyLimit,
		p.Limits.WeeklyLimit,
		p.Limits.RequiresApproval,
		p.Limits.ApprovalThreshold,
		p.ExpiresAt,
		p.CreatedAt,
		p.RevokedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert permission: %w", err)
	}
	return nil
}

// GetByID retrieves a permission by its ID. Returns ErrNotFound if not exists.
func (s *PermissionStore) GetByID(ctx context.Context, permissionID string) (*domain.WalletPermission, error) {
	query := `
		SELECT ` + permissionColumns + `
		FROM wallet_permissions
		WHERE permission_id = $1
	`

	row := s.pool.QueryRow(ctx, query, permissionID)
	p, err := scanPermission(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get permission by id: %w", err)
	}
	return p, nil
}

// GetActiveByAgent retrieves the active permission for an agent.
// Returns ErrNotFound if the agent has no active permission.
func (s *PermissionStore) GetActiveByAgent(ctx context.Context, agentID string) (*domain.WalletPermission, error) {
	query := `
		SELECT ` + permissionColumns + `
		FROM wallet_permissions
		WHERE agent_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, agentID)
	p, err := scanPermission(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get active permission by agent: %w", err)
	}
	return p, nil
}

// GetAll retrieves all permissions.
func (s *PermissionStore) GetAll(ctx context.Context) ([]*domain.WalletPermission, error) {
	query := `
		SELECT ` + permissionColumns + `
		FROM wallet_permissions
		ORDER BY created_at ASC, permission_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all permissions: %w", err)
	}
	defer rows.Close()

	return scanPermissions(rows)
}

// SetInactive flips is_active to false. Returns ErrNotFound if not exists.
func (s *PermissionStore) SetInactive(ctx context.Context, permissionID string) error {
	query := `
		UPDATE wallet_permissions SET is_active = FALSE
		WHERE permission_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, permissionID)
	if err != nil {
		return fmt.Errorf("set permission inactive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Revoke flips is_active to false and stamps revoked_at.
// Returns ErrNotFound if not exists.
func (s *PermissionStore) Revoke(ctx context.Context, permissionID string, at time.Time) error {
	query := `
		UPDATE wallet_permissions SET is_active = FALSE, revoked_at = $2
		WHERE permission_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, permissionID, at)
	if err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanPermission scans a single row into a WalletPermission.
func scanPermission(row pgx.Row) (*domain.WalletPermission, error) {
	var p domain.WalletPermission
	var actions []string

	err := row.Scan(
		&p.PermissionID,
		&p.AgentID,
		&p.WalletAddress,
		&p.IsActive,
		&actions,
		&p.Limits.MaxTransactionValue,
		&p.Limits.DailyLimit,
		&p.Limits.WeeklyLimit,
		&p.Limits.RequiresApproval,
		&p.Limits.ApprovalThreshold,
		&p.ExpiresAt,
		&p.CreatedAt,
		&p.RevokedAt,
	)
	if err != nil {
		return nil, err
	}

	p.AllowedActions = stringsToActions(actions)
	return &p, nil
}

// scanPermissions scans multiple rows into a slice of WalletPermission.
func scanPermissions(rows pgx.Rows) ([]*domain.WalletPermission, error) {
	var perms []*domain.WalletPermission

	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan permission row: %w", err)
		}
		perms = append(perms, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permission rows: %w", err)
	}

	return perms, nil
}

func actionsToStrings(actions []domain.PermissionAction) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}

func stringsToActions(values []string) []domain.PermissionAction {
	out := make([]domain.PermissionAction, len(values))
	for i, v := range values {
		out[i] = domain.PermissionAction(v)
	}
	return out
}
