// Package strategy holds evaluable trading strategies and the registry
// that stores them per owner. Evaluation is a pure function of the signal
// batch; the registry never mutates agent or position state.
package strategy

import (
	"agent-control-plane/internal/domain"
)

// Strategy turns a signal batch into at most one trade intent.
type Strategy interface {
	// Evaluate inspects the batch and returns a candidate intent, or nil
	// when the signals do not justify a trade. Must be a pure function of
	// the batch: no hidden state, no side effects.
	Evaluate(signals []domain.Signal) *domain.TradeIntent

	// ID returns the strategy identifier (includes parameters).
	ID() string
}

// latestPrice returns the most recent price signal for a market, nil if the
// batch has none.
func latestPrice(signals []domain.Signal, market string) *domain.Signal {
	var latest *domain.Signal
	for i := range signals {
		s := &signals[i]
		if s.Kind != domain.SignalKindPrice || s.Market != market {
			continue
		}
		if latest == nil || s.Timestamp.After(latest.Timestamp) {
			latest = s
		}
	}
	return latest
}

// buildIntent assembles an intent from a sizing decision. Size is derived
// from the USD notional at the signal price; AmountUSD is set exactly once
// here and never recomputed downstream.
func buildIntent(side domain.IntentSide, market string, notionalUSD, price, leverage float64) *domain.TradeIntent {
	if price <= 0 {
		return nil
	}
	return &domain.TradeIntent{
		Side:        side,
		Market:      market,
		Size:        notionalUSD / price,
		AmountUSD:   notionalUSD,
		TargetPrice: price,
		Leverage:    leverage,
		Status:      domain.IntentStatusPending,
	}
}
