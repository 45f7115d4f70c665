package strategy

import (
	"fmt"

	"agent-control-plane/internal/domain"
)

// MomentumStrategy trades in the direction of a sustained 24h move.
// A move of at least EntryChangePct up buys; the same move down sells.
type MomentumStrategy struct {
	Market         string
	EntryChangePct float64 // minimum absolute 24h move, percent
	BaseSizeUSD    float64
	Leverage       float64
}

// NewMomentumStrategy creates a new MomentumStrategy.
func NewMomentumStrategy(market string, entryChangePct, baseSizeUSD, leverage float64) *MomentumStrategy {
	return &MomentumStrategy{
		Market:         market,
		EntryChangePct: entryChangePct,
		BaseSizeUSD:    baseSizeUSD,
		Leverage:       leverage,
	}
}

// ID returns the strategy identifier including parameters.
func (s *MomentumStrategy) ID() string {
	return fmt.Sprintf("MOMENTUM_%s_%.1fpct", s.Market, s.EntryChangePct)
}

// Evaluate acts on the most recent price signal for the strategy's market.
func (s *MomentumStrategy) Evaluate(signals []domain.Signal) *domain.TradeIntent {
	sig := latestPrice(signals, s.Market)
	if sig == nil {
		return nil
	}

	switch {
	case sig.Change24h >= s.EntryChangePct:
		return buildIntent(domain.SideBuy, s.Market, s.BaseSizeUSD, sig.Value, s.Leverage)
	case sig.Change24h <= -s.EntryChangePct:
		return buildIntent(domain.SideSell, s.Market, s.BaseSizeUSD, sig.Value, s.Leverage)
	default:
		return nil
	}
}

// Ensure MomentumStrategy implements Strategy
var _ Strategy = (*MomentumStrategy)(nil)
