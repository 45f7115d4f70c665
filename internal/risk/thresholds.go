// Package risk implements the adaptive survival-mode controller: a
// five-state machine over portfolio P&L that throttles position sizing,
// leverage, and whether new positions may be opened at all.
package risk

import (
	"agent-control-plane/internal/domain"
)

// Thresholds are the P&L percent boundaries between survival modes.
// Modes cover, from the top down:
//
//	growth       pnl >= GrowthPct
//	normal       [NormalPct, GrowthPct)
//	defensive    [DefensivePct, NormalPct)
//	critical     [HibernationPct, DefensivePct)
//	hibernation  pnl < HibernationPct
type Thresholds struct {
	GrowthPct      float64
	NormalPct      float64
	DefensivePct   float64
	HibernationPct float64
}

// DefaultThresholds returns the canonical boundary set: +20 / 0 / -10 / -50.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GrowthPct:      20,
		NormalPct:      0,
		DefensivePct:   -10,
		HibernationPct: -50,
	}
}

// ModeFor maps a P&L percent to a survival mode.
func (t Thresholds) ModeFor(pnlPercent float64) domain.SurvivalMode {
	switch {
	case pnlPercent >= t.GrowthPct:
		return domain.ModeGrowth
	case pnlPercent >= t.NormalPct:
		return domain.ModeNormal
	case pnlPercent >= t.DefensivePct:
		return domain.ModeDefensive
	case pnlPercent >= t.HibernationPct:
		return domain.ModeCritical
	default:
		return domain.ModeHibernation
	}
}

// ModeParams are the constraints a survival mode derives.
type ModeParams struct {
	MaxAllocationPct   float64 // max % of portfolio per trade
	RiskMultiplier     float64 // scales intent size
	CanOpenNewPosition bool
	MaxLeverage        float64 // 0 = unlimited
}

// DefaultModeParams returns the per-mode constraint table.
func DefaultModeParams() map[domain.SurvivalMode]ModeParams {
	return map[domain.SurvivalMode]ModeParams{
		domain.ModeGrowth:      {MaxAllocationPct: 25, RiskMultiplier: 1.5, CanOpenNewPosition: true, MaxLeverage: 3},
		domain.ModeNormal:      {MaxAllocationPct: 15, RiskMultiplier: 1.0, CanOpenNewPosition: true, MaxLeverage: 2},
		domain.ModeDefensive:   {MaxAllocationPct: 5, RiskMultiplier: 0.5, CanOpenNewPosition: true, MaxLeverage: 1},
		domain.ModeCritical:    {MaxAllocationPct: 2, RiskMultiplier: 0.25, CanOpenNewPosition: false, MaxLeverage: 1},
		domain.ModeHibernation: {MaxAllocationPct: 0, RiskMultiplier: 0, CanOpenNewPosition: false, MaxLeverage: 0},
	}
}
