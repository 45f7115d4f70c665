package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/storage"
)

// AgentStore implements storage.AgentStore using PostgreSQL.
type AgentStore struct {
	pool *Pool
}

// NewAgentStore creates a new AgentStore.
func NewAgentStore(pool *Pool) *AgentStore {
	return &AgentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AgentStore = (*AgentStore)(nil)

const agentColumns = `
	agent_id, user_id, name, status, strategy_id, wallet_address,
	max_position_size, max_daily_loss, allowed_markets, allowed_chains, risk_tier, auto_execute,
	total_trades, winning_trades, win_rate, total_pnl, daily_pnl, current_positions,
	created_at, updated_at
`

// Insert adds a new agent. Returns ErrDuplicateKey if agent_id exists.
func (s *AgentStore) Insert(ctx context.Context, a *domain.AgentRecord) error {
	query := `
		INSERT INTO agents (` + agentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := s.pool.Exec(ctx, query,
		a.AgentID,
		a.UserID,
		a.Name,
		string(a.Status),
		a.StrategyID,
		a.WalletAddress,
		a.Config.MaxPositionSize,
		a.Config.MaxDailyLoss,
		a.Config.AllowedMarkets,
		a.Config.AllowedChains,
		a.Config.RiskTier,
		a.Config.AutoExecute,
		a.Performance.TotalTrades,
		a.Performance.WinningTrades,
		a.Performance.WinRate,
		a.Performance.TotalPnL,
		a.Performance.DailyPnL,
		a.Performance.CurrentPositions,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// GetByID retrieves an agent by its ID. Returns ErrNotFound if not exists.
func (s *AgentStore) GetByID(ctx context.Context, agentID string) (*domain.AgentRecord, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM agents
		WHERE agent_id = $1
	`

	row := s.pool.QueryRow(ctx, query, agentID)
	a, err := scanAgent(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get agent by id: %w", err)
	}
	return a, nil
}

// GetByUser retrieves all agents owned by a user, ordered by created_at ASC.
func (s *AgentStore) GetByUser(ctx context.Context, userID string) ([]*domain.AgentRecord, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM agents
		WHERE user_id = $1
		ORDER BY created_at ASC, agent_id ASC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get agents by user: %w", err)
	}
	defer rows.Close()

	return scanAgents(rows)
}

// GetAll retrieves all agents.
func (s *AgentStore) GetAll(ctx context.Context) ([]*domain.AgentRecord, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM agents
		ORDER BY created_at ASC, agent_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all agents: %w", err)
	}
	defer rows.Close()

	return scanAgents(rows)
}

// Update replaces an existing record. Returns ErrNotFound if not exists.
func (s *AgentStore) Update(ctx context.Context, a *domain.AgentRecord) error {
	query := `
		UPDATE agents SET
			user_id = $2, name = $3, status = $4, strategy_id = $5, wallet_address = $6,
			max_position_size = $7, max_daily_loss = $8, allowed_markets = $9, allowed_chains = $10,
			risk_tier = $11, auto_execute = $12,
			total_trades = $13, winning_trades = $14, win_rate = $15,
			total_pnl = $16, daily_pnl = $17, current_positions = $18,
			updated_at = $19
		WHERE agent_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		a.AgentID,
		a.UserID,
		a.Name,
		string(a.Status),
		a.StrategyID,
		a.WalletAddress,
		a.Config.MaxPositionSize,
		a.Config.MaxDailyLoss,
		a.Config.AllowedMarkets,
		a.Config.AllowedChains,
		a.Config.RiskTier,
		a.Config.AutoExecute,
		a.Performance.TotalTrades,
		a.Performance.WinningTrades,
		a.Performance.WinRate,
		a.Performance.TotalPnL,
		a.Performance.DailyPnL,
		a.Performance.CurrentPositions,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanAgent scans a single row into an AgentRecord.
func scanAgent(row pgx.Row) (*domain.AgentRecord, error) {
	var a domain.AgentRecord
	var statusStr string

	err := row.Scan(
		&a.AgentID,
		&a.UserID,
		&a.Name,
		&statusStr,
		&a.StrategyID,
		&a.WalletAddress,
		&a.Config.MaxPositionSize,
		&a.Config.MaxDailyLoss,
		&a.Config.AllowedMarkets,
		&a.Config.AllowedChains,
		&a.Config.RiskTier,
		&a.Config.AutoExecute,
		&a.Performance.TotalTrades,
		&a.Performance.WinningTrades,
		&a.Performance.WinRate,
		&a.Performance.TotalPnL,
		&a.Performance.DailyPnL,
		&a.Performance.CurrentPositions,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Status = domain.AgentStatus(statusStr)
	return &a, nil
}

// scanAgents scans multiple rows into a slice of AgentRecord.
func scanAgents(rows pgx.Rows) ([]*domain.AgentRecord, error) {
	var agents []*domain.AgentRecord

	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent row: %w", err)
		}
		agents = append(agents, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agent rows: %w", err)
	}

	return agents, nil
}
