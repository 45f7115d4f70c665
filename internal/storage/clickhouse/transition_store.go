package clickhouse

import (
	"context"
	"fmt"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/storage"
)

// TransitionStore implements storage.TransitionStore using ClickHouse.
// The history is append-only; rows are never updated or deleted.
type TransitionStore struct {
	conn *Conn
}

// NewTransitionStore creates a new TransitionStore.
func NewTransitionStore(conn *Conn) *TransitionStore {
	return &TransitionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TransitionStore = (*TransitionStore)(nil)

// Insert appends a transition entry.
func (s *TransitionStore) Insert(ctx context.Context, t *domain.ModeTransition) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO mode_transitions (
			wallet_address, from_mode, to_mode, portfolio_value, portfolio_change,
			reason, actions_executed, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		t.WalletAddress, string(t.FromMode), string(t.ToMode),
		t.PortfolioValue, t.PortfolioChange,
		t.Reason, t.ActionsExecuted, uint64(t.TimestampMs),
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByWallet retrieves all transitions for a wallet, ordered by timestamp ASC.
func (s *TransitionStore) GetByWallet(ctx context.Context, walletAddress string) ([]*domain.ModeTransition, error) {
	query := `
		SELECT wallet_address, from_mode, to_mode, portfolio_value, portfolio_change,
		       reason, actions_executed, timestamp_ms
		FROM mode_transitions
		WHERE wallet_address = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("query transitions by wallet: %w", err)
	}
	defer rows.Close()

	var transitions []*domain.ModeTransition
	for rows.Next() {
		var t domain.ModeTransition
		var fromStr, toStr string
		var timestampMs uint64

		err := rows.Scan(
			&t.WalletAddress, &fromStr, &toStr,
			&t.PortfolioValue, &t.PortfolioChange,
			&t.Reason, &t.ActionsExecuted, &timestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transition row: %w", err)
		}

		t.FromMode = domain.SurvivalMode(fromStr)
		t.ToMode = domain.SurvivalMode(toStr)
		t.TimestampMs = int64(timestampMs)
		transitions = append(transitions, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transition rows: %w", err)
	}

	return transitions, nil
}
