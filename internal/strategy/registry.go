package strategy

import (
	"errors"
	"sort"
	"sync"
	"time"

	"agent-control-plane/internal/domain"
)

// Registry errors
var (
	ErrStrategyNotFound  = errors.New("strategy not found")
	ErrDuplicateStrategy = errors.New("strategy already registered")
)

// entry pairs a stored config with the strategy built from it.
type entry struct {
	config   domain.StrategyConfig
	strategy Strategy
}

// Registry is a keyed store of strategies. Register validates the config
// through the factory, so every stored entry is evaluable.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry // keyed by strategy_id
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Register builds a strategy from the config and stores it.
// Returns ErrDuplicateStrategy if the id is taken, or a factory error when
// required parameters are missing.
func (r *Registry) Register(cfg domain.StrategyConfig) error {
	s, err := FromConfig(cfg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[cfg.StrategyID]; exists {
		return ErrDuplicateStrategy
	}

	now := r.now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	r.entries[cfg.StrategyID] = &entry{config: cfg, strategy: s}
	return nil
}

// Get returns the evaluable strategy for an id.
func (r *Registry) Get(strategyID string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[strategyID]
	if !exists {
		return nil, ErrStrategyNotFound
	}
	return e.strategy, nil
}

// GetConfig returns a copy of the stored config for an id.
func (r *Registry) GetConfig(strategyID string) (domain.StrategyConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[strategyID]
	if !exists {
		return domain.StrategyConfig{}, ErrStrategyNotFound
	}
	return e.config, nil
}

// Update is a partial-field patch applied to a stored config. Non-nil
// fields on the patch replace the stored values, the strategy is rebuilt,
// and UpdatedAt is bumped. The id, owner and creation time never change.
type Update struct {
	Name           *string
	Market         *string
	EntryChangePct *float64
	ReferencePrice *float64
	BandPct        *float64
	BaseSizeUSD    *float64
	Leverage       *float64
}

// Update applies a partial patch to a stored strategy config.
// The patched config must still pass factory validation.
func (r *Registry) Update(strategyID string, patch Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[strategyID]
	if !exists {
		return ErrStrategyNotFound
	}

	cfg := e.config
	if patch.Name != nil {
		cfg.Name = *patch.Name
	}
	if patch.Market != nil {
		cfg.Market = *patch.Market
	}
	if patch.EntryChangePct != nil {
		cfg.EntryChangePct = patch.EntryChangePct
	}
	if patch.ReferencePrice != nil {
		cfg.ReferencePrice = patch.ReferencePrice
	}
	if patch.BandPct != nil {
		cfg.BandPct = patch.BandPct
	}
	if patch.BaseSizeUSD != nil {
		cfg.BaseSizeUSD = patch.BaseSizeUSD
	}
	if patch.Leverage != nil {
		cfg.Leverage = *patch.Leverage
	}

	s, err := FromConfig(cfg)
	if err != nil {
		return err
	}

	cfg.UpdatedAt = r.now()
	e.config = cfg
	e.strategy = s
	return nil
}

// Delete removes a strategy. Returns ErrStrategyNotFound if absent.
func (r *Registry) Delete(strategyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[strategyID]; !exists {
		return ErrStrategyNotFound
	}
	delete(r.entries, strategyID)
	return nil
}

// ListByOwner returns configs owned by a user, ordered by strategy id.
func (r *Registry) ListByOwner(ownerID string) []domain.StrategyConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.StrategyConfig
	for _, e := range r.entries {
		if e.config.OwnerID == ownerID {
			out = append(out, e.config)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StrategyID < out[j].StrategyID })
	return out
}
