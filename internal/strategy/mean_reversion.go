package strategy

import (
	"fmt"

	"agent-control-plane/internal/domain"
)

// MeanReversionStrategy bets on the price returning to a reference level.
// A price BandPct below the reference buys; the mirror distance above sells.
type MeanReversionStrategy struct {
	Market         string
	ReferencePrice float64
	BandPct        float64 // deviation from reference, percent
	BaseSizeUSD    float64
	Leverage       float64
}

// NewMeanReversionStrategy creates a new MeanReversionStrategy.
func NewMeanReversionStrategy(market string, referencePrice, bandPct, baseSizeUSD, leverage float64) *MeanReversionStrategy {
	return &MeanReversionStrategy{
		Market:         market,
		ReferencePrice: referencePrice,
		BandPct:        bandPct,
		BaseSizeUSD:    baseSizeUSD,
		Leverage:       leverage,
	}
}

// ID returns the strategy identifier including parameters.
func (s *MeanReversionStrategy) ID() string {
	return fmt.Sprintf("MEAN_REVERSION_%s_%.2f_%.1fpct", s.Market, s.ReferencePrice, s.BandPct)
}

// Evaluate acts when the latest price leaves the band around the reference.
func (s *MeanReversionStrategy) Evaluate(signals []domain.Signal) *domain.TradeIntent {
	sig := latestPrice(signals, s.Market)
	if sig == nil || s.ReferencePrice <= 0 {
		return nil
	}

	deviationPct := (sig.Value - s.ReferencePrice) / s.ReferencePrice * 100

	switch {
	case deviationPct <= -s.BandPct:
		return buildIntent(domain.SideBuy, s.Market, s.BaseSizeUSD, sig.Value, s.Leverage)
	case deviationPct >= s.BandPct:
		return buildIntent(domain.SideSell, s.Market, s.BaseSizeUSD, sig.Value, s.Leverage)
	default:
		return nil
	}
}

// Ensure MeanReversionStrategy implements Strategy
var _ Strategy = (*MeanReversionStrategy)(nil)
