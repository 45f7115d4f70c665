package clickhouse

import (
	"context"
	"fmt"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/storage"
)

// ExecutionStore implements storage.ExecutionStore using ClickHouse.
// Results are an append-only audit trail, one row per execution attempt.
type ExecutionStore struct {
	conn *Conn
}

// NewExecutionStore creates a new ExecutionStore.
func NewExecutionStore(conn *Conn) *ExecutionStore {
	return &ExecutionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ExecutionStore = (*ExecutionStore)(nil)

// Insert appends an execution result.
func (s *ExecutionStore) Insert(ctx context.Context, r *domain.ExecutionResult) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO execution_results (
			intent_id, agent_id, success, executed_price, executed_size,
			fees_usd, slippage_pct, realized_pnl, error, executed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	success := uint8(0)
	if r.Success {
		success = 1
	}

	err = batch.Append(
		r.IntentID, r.AgentID, success,
		r.ExecutedPrice, r.ExecutedSize,
		r.FeesUSD, r.SlippagePct, r.RealizedPnL,
		r.Error, r.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAgent retrieves all results for an agent, ordered by executed_at ASC.
func (s *ExecutionStore) GetByAgent(ctx context.Context, agentID string) ([]*domain.ExecutionResult, error) {
	query := `
		SELECT intent_id, agent_id, success, executed_price, executed_size,
		       fees_usd, slippage_pct, realized_pnl, error, executed_at
		FROM execution_results
		WHERE agent_id = ?
		ORDER BY executed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("query results by agent: %w", err)
	}
	defer rows.Close()

	var results []*domain.ExecutionResult
	for rows.Next() {
		var r domain.ExecutionResult
		var success uint8

		err := rows.Scan(
			&r.IntentID, &r.AgentID, &success,
			&r.ExecutedPrice, &r.ExecutedSize,
			&r.FeesUSD, &r.SlippagePct, &r.RealizedPnL,
			&r.Error, &r.ExecutedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}

		r.Success = success != 0
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}

	return results, nil
}
