package postgres

import (
	"context"
	"fmt"

	"agent-control-plane/internal/storage"
)

// UsageStore implements storage.UsageStore using PostgreSQL.
// Counters are upserted atomically so concurrent writers never lose increments.
type UsageStore struct {
	pool *Pool
}

// NewUsageStore creates a new UsageStore.
func NewUsageStore(pool *Pool) *UsageStore {
	return &UsageStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UsageStore = (*UsageStore)(nil)

// Add increments the counter for a key and returns the new total.
func (s *UsageStore) Add(ctx context.Context, key string, amount float64) (float64, error) {
	query := `
		INSERT INTO usage_counters (usage_key, amount, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (usage_key)
		DO UPDATE SET amount = usage_counters.amount + EXCLUDED.amount, updated_at = now()
		RETURNING amount
	`

	var total float64
	if err := s.pool.QueryRow(ctx, query, key, amount).Scan(&total); err != nil {
		return 0, fmt.Errorf("add usage: %w", err)
	}
	return total, nil
}

// Get returns the counter for a key, 0 if absent.
func (s *UsageStore) Get(ctx context.Context, key string) (float64, error) {
	query := `
		SELECT amount FROM usage_counters WHERE usage_key = $1
	`

	var total float64
	err := s.pool.QueryRow(ctx, query, key).Scan(&total)
	if err != nil {
		if isNotFoundError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get usage: %w", err)
	}
	return total, nil
}
