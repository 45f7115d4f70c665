package domain

import "time"

// PermissionAction is a wallet operation an agent may be granted.
type PermissionAction string

// Permission action constants
const (
	ActionSwap          PermissionAction = "swap"
	ActionPlaceOrder    PermissionAction = "place-order"
	ActionCancelOrder   PermissionAction = "cancel-order"
	ActionClosePosition PermissionAction = "close-position"
)

// PermissionLimits bounds what an agent may spend through a permission.
type PermissionLimits struct {
	MaxTransactionValue float64 // cap per transaction, USD
	DailyLimit          float64 // rolling calendar-day cap, USD
	WeeklyLimit         float64 // rolling week-of-year cap, USD

	// RequiresApproval routes transactions above ApprovalThreshold to
	// manual approval instead of auto-execution.
	RequiresApproval  bool
	ApprovalThreshold float64
}

// WalletPermission is a spending authorization grant for one agent.
// Exactly one active permission per agent at a time, by convention.
type WalletPermission struct {
	PermissionID   string
	AgentID        string
	WalletAddress  string
	IsActive       bool
	AllowedActions []PermissionAction
	Limits         PermissionLimits
	ExpiresAt      time.Time
	CreatedAt      time.Time
	RevokedAt      *time.Time
}

// Allows reports whether the permission grants the given action.
func (p *WalletPermission) Allows(action PermissionAction) bool {
	for _, a := range p.AllowedActions {
		if a == action {
			return true
		}
	}
	return false
}
