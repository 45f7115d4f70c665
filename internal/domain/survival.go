package domain

// SurvivalMode is the adaptive risk regime derived from portfolio P&L.
type SurvivalMode string

// Survival mode constants, ordered from most to least permissive.
const (
	ModeGrowth      SurvivalMode = "growth"
	ModeNormal      SurvivalMode = "normal"
	ModeDefensive   SurvivalMode = "defensive"
	ModeCritical    SurvivalMode = "critical"    // exit-only actions
	ModeHibernation SurvivalMode = "hibernation" // no new positions at all
)

// SurvivalStatus is the current risk regime and its derived constraints.
type SurvivalStatus struct {
	Mode       SurvivalMode
	PnLPercent float64 // (current - start) / start * 100

	// Derived constraints
	MaxAllocationPct   float64 // max % of portfolio per trade
	RiskMultiplier     float64 // scales intent size
	CanOpenNewPosition bool
	MaxLeverage        float64 // 0 = unlimited

	// Audit trail of the last transition
	PreviousMode   SurvivalMode
	TransitionMs   int64 // unix ms of last mode change, 0 if never changed
	StartBalance   float64
	CurrentBalance float64
}

// ModeTransition is one immutable survival-mode history entry.
type ModeTransition struct {
	WalletAddress   string
	FromMode        SurvivalMode
	ToMode          SurvivalMode
	PortfolioValue  float64
	PortfolioChange float64 // pnlPercent at transition time
	Reason          string
	ActionsExecuted []string
	TimestampMs     int64
}
