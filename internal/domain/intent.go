package domain

import "time"

// IntentSide is the direction of a proposed trade.
type IntentSide string

// Intent side constants
const (
	SideBuy   IntentSide = "buy"
	SideSell  IntentSide = "sell"
	SideClose IntentSide = "close"
)

// IntentStatus tracks a trade intent through the execution pipeline.
type IntentStatus string

// Intent status constants. Flow: pending → routing → executing → terminal.
const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusRouting   IntentStatus = "routing"
	IntentStatusExecuting IntentStatus = "executing"
	IntentStatusCompleted IntentStatus = "completed"
	IntentStatusFailed    IntentStatus = "failed"
	IntentStatusCancelled IntentStatus = "cancelled"
)

// Terminal reports whether the status is final; terminal intents are immutable.
func (s IntentStatus) Terminal() bool {
	return s == IntentStatusCompleted || s == IntentStatusFailed || s == IntentStatusCancelled
}

// ValidIntentTransition reports whether an intent status change is allowed.
func ValidIntentTransition(from, to IntentStatus) bool {
	switch from {
	case IntentStatusPending:
		return to == IntentStatusRouting || to == IntentStatusCancelled
	case IntentStatusRouting:
		return to == IntentStatusExecuting || to == IntentStatusCancelled
	case IntentStatusExecuting:
		return to == IntentStatusCompleted || to == IntentStatusFailed
	default:
		return false
	}
}

// TradeIntent is a proposed trade produced by strategy evaluation.
// AmountUSD is the single canonical notional, computed once at creation;
// consumers must not re-derive it from size and price.
type TradeIntent struct {
	IntentID   string
	AgentID    string
	StrategyID string

	Side   IntentSide
	Market string  // token or market identifier, e.g. "SOL-USDC"
	Size   float64 // base units

	AmountUSD   float64 // canonical notional = Size * TargetPrice at creation
	TargetPrice float64
	Leverage    float64 // 0 = spot / no leverage

	// Optional constraints
	MaxSlippagePct float64
	StopLoss       float64
	TakeProfit     float64

	Status    IntentStatus
	CreatedAt time.Time
}

// Action maps the intent's side to the wallet permission action it requires.
func (i *TradeIntent) Action() PermissionAction {
	if i.Side == SideClose {
		return ActionClosePosition
	}
	return ActionPlaceOrder
}

// ExecutionResult is the final outcome of one intent attempt. Retries inside
// the resilience layer are invisible here; exactly one result per attempt.
type ExecutionResult struct {
	IntentID string
	AgentID  string

	Success       bool
	ExecutedPrice float64
	ExecutedSize  float64
	FeesUSD       float64
	SlippagePct   float64
	RealizedPnL   float64 // computed by the caller, aggregated here
	Error         string  // empty on success

	ExecutedAt time.Time
}
