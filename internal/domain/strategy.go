package domain

import "time"

// StrategyType identifies a strategy implementation.
type StrategyType string

// Strategy type constants
const (
	StrategyTypeMomentum      StrategyType = "MOMENTUM"
	StrategyTypeMeanReversion StrategyType = "MEAN_REVERSION"
)

// StrategyConfig is the registry record for one strategy instance.
// Type-specific parameters are pointers so the factory can distinguish
// "absent" from a legitimate zero value.
type StrategyConfig struct {
	StrategyID   string
	OwnerID      string
	Name         string
	StrategyType StrategyType
	Market       string // market the strategy trades, e.g. "SOL-USDC"

	// MOMENTUM parameters
	EntryChangePct *float64 // minimum 24h move (percent) to act on

	// MEAN_REVERSION parameters
	ReferencePrice *float64 // anchor price the market is expected to revert to
	BandPct        *float64 // deviation (percent) beyond which the strategy acts

	// Shared sizing parameters
	BaseSizeUSD *float64 // notional per generated intent
	Leverage    float64  // 0 = spot

	CreatedAt time.Time
	UpdatedAt time.Time
}
