package domain

import "time"

// AgentStatus is the lifecycle state of a trading agent.
type AgentStatus string

// Agent status constants
const (
	AgentStatusActive  AgentStatus = "active"
	AgentStatusPaused  AgentStatus = "paused"
	AgentStatusStopped AgentStatus = "stopped" // terminal, never reactivated
)

// ValidAgentTransition reports whether an agent status change is allowed.
// active ⇄ paused; active|paused → stopped; stopped is terminal.
func ValidAgentTransition(from, to AgentStatus) bool {
	switch from {
	case AgentStatusActive:
		return to == AgentStatusPaused || to == AgentStatusStopped
	case AgentStatusPaused:
		return to == AgentStatusActive || to == AgentStatusStopped
	default:
		return false
	}
}

// AgentConfig holds per-agent trading limits.
type AgentConfig struct {
	MaxPositionSize float64  // max USD value of a single position
	MaxDailyLoss    float64  // max daily loss in USD before the agent should stand down
	AllowedMarkets  []string // markets the agent may trade; empty = all
	AllowedChains   []string // chains the agent may touch; empty = all
	RiskTier        string   // "conservative" | "balanced" | "aggressive"
	AutoExecute     bool     // execute intents without manual confirmation
}

// AgentPerformance is the in-memory performance snapshot for one agent.
type AgentPerformance struct {
	TotalTrades      int
	WinningTrades    int
	WinRate          float64 // WinningTrades / TotalTrades
	TotalPnL         float64 // cumulative realized P&L, USD
	DailyPnL         float64 // realized P&L since last daily reset, USD
	CurrentPositions int     // open position count
}

// AgentRecord represents a registered autonomous trading agent.
// Mutated only through orchestrator methods.
type AgentRecord struct {
	AgentID       string
	UserID        string
	Name          string
	Status        AgentStatus
	StrategyID    string
	WalletAddress string
	Config        AgentConfig
	Performance   AgentPerformance
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
