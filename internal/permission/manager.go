// Package permission enforces per-agent wallet spending authorization:
// action grants, per-transaction caps, rolling daily/weekly quotas, expiry
// and manual-approval thresholds. Denials are data, never errors.
package permission

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/storage"
	"agent-control-plane/internal/wallet"
)

// Denial reason codes, one per check in evaluation order.
const (
	ReasonPermissionInactive       = "PermissionInactive"
	ReasonPermissionExpired        = "PermissionExpired"
	ReasonActionNotPermitted       = "ActionNotPermitted"
	ReasonTransactionLimitExceeded = "TransactionLimitExceeded"
	ReasonDailyLimitExceeded       = "DailyLimitExceeded"
	ReasonWeeklyLimitExceeded      = "WeeklyLimitExceeded"
	ReasonApprovalRequired         = "ApprovalRequired"
)

// CheckResult is the outcome of a permission check.
// On Permitted=true the remaining budgets are reported AFTER the checked
// transaction: the check is reservation-style and the caller must follow a
// permitted check with RecordUsage (or use Authorize, which does both).
type CheckResult struct {
	Permitted bool
	Reason    string // denial code, empty when permitted
	Message   string // human-readable detail

	RemainingDailyLimit  *float64
	RemainingWeeklyLimit *float64
}

// Options configures a Manager.
type Options struct {
	PermissionStore storage.PermissionStore
	UsageStore      storage.UsageStore

	// ValidateWalletAddresses rejects RegisterPermission calls whose wallet
	// address is not a valid on-curve ed25519 key. Off by default so tests
	// and paper-trading setups can use synthetic addresses.
	ValidateWalletAddresses bool

	Logger *log.Logger
}

// Manager owns wallet permissions and their rolling usage counters.
// The check-then-record sequence runs under one lock: two concurrent trades
// against the same permission can never jointly exceed a quota.
type Manager struct {
	perms storage.PermissionStore
	usage storage.UsageStore

	validateAddrs bool
	logger        *log.Logger
	now           func() time.Time

	// mu serializes check+record critical sections across all permissions.
	mu sync.Mutex
}

// NewManager creates a permission manager.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		perms:         opts.PermissionStore,
		usage:         opts.UsageStore,
		validateAddrs: opts.ValidateWalletAddresses,
		logger:        logger,
		now:           time.Now,
	}
}

// RegisterPermission stores a new grant.
func (m *Manager) RegisterPermission(ctx context.Context, p *domain.WalletPermission) error {
	if p == nil {
		return storage.ErrInvalidInput
	}
	if m.validateAddrs {
		if err := wallet.ValidateAddress(p.WalletAddress); err != nil {
			return fmt.Errorf("wallet address %q: %w", p.WalletAddress, err)
		}
	}
	if err := m.perms.Insert(ctx, p); err != nil {
		return fmt.Errorf("register permission: %w", err)
	}
	return nil
}

// RevokePermission deactivates a grant and stamps revoked_at.
func (m *Manager) RevokePermission(ctx context.Context, permissionID string) error {
	if err := m.perms.Revoke(ctx, permissionID, m.now()); err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}
	return nil
}

// GetPermissionByAgent returns the agent's active permission.
// Returns storage.ErrNotFound if none exists.
func (m *Manager) GetPermissionByAgent(ctx context.Context, agentID string) (*domain.WalletPermission, error) {
	return m.perms.GetActiveByAgent(ctx, agentID)
}

// CheckPermission evaluates an intent against a permission. Checks run in a
// fixed order and short-circuit on the first failure; each failure carries a
// distinct reason code. Never returns an error for a denial.
func (m *Manager) CheckPermission(ctx context.Context, intent *domain.TradeIntent, p *domain.WalletPermission) (CheckResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.check(ctx, intent, p)
}

// check evaluates the rules. Caller must hold m.mu.
func (m *Manager) check(ctx context.Context, intent *domain.TradeIntent, p *domain.WalletPermission) (CheckResult, error) {
	now := m.now()
	amount := intent.AmountUSD

	// 1. Active
	if !p.IsActive {
		return denied(ReasonPermissionInactive, "permission is not active"), nil
	}

	// 2. Expiry
	if now.After(p.ExpiresAt) {
		return denied(ReasonPermissionExpired,
			fmt.Sprintf("permission expired at %s", p.ExpiresAt.UTC().Format(time.RFC3339))), nil
	}

	// 3. Action grant
	action := intent.Action()
	if !p.Allows(action) {
		return denied(ReasonActionNotPermitted,
			fmt.Sprintf("action %s is not in the allowed set", action)), nil
	}

	// 4. Per-transaction cap
	if amount > p.Limits.MaxTransactionValue {
		return denied(ReasonTransactionLimitExceeded,
			fmt.Sprintf("amount %.2f exceeds per-transaction cap %.2f", amount, p.Limits.MaxTransactionValue)), nil
	}

	// 5. Daily quota
	dailyUsed, err := m.usage.Get(ctx, DayKey(p.PermissionID, now))
	if err != nil {
		return CheckResult{}, fmt.Errorf("read daily usage: %w", err)
	}
	if dailyUsed+amount > p.Limits.DailyLimit {
		result := denied(ReasonDailyLimitExceeded,
			fmt.Sprintf("daily usage %.2f + %.2f exceeds limit %.2f", dailyUsed, amount, p.Limits.DailyLimit))
		remaining := p.Limits.DailyLimit - dailyUsed
		if remaining < 0 {
			remaining = 0
		}
		result.RemainingDailyLimit = &remaining
		return result, nil
	}

	// 6. Weekly quota
	weeklyUsed, err := m.usage.Get(ctx, WeekKey(p.PermissionID, now))
	if err != nil {
		return CheckResult{}, fmt.Errorf("read weekly usage: %w", err)
	}
	if weeklyUsed+amount > p.Limits.WeeklyLimit {
		return denied(ReasonWeeklyLimitExceeded,
			fmt.Sprintf("weekly usage %.2f + %.2f exceeds limit %.2f", weeklyUsed, amount, p.Limits.WeeklyLimit)), nil
	}

	// 7. Manual approval threshold
	if p.Limits.RequiresApproval && amount > p.Limits.ApprovalThreshold {
		return denied(ReasonApprovalRequired,
			fmt.Sprintf("amount %.2f exceeds approval threshold %.2f", amount, p.Limits.ApprovalThreshold)), nil
	}

	// Permitted: report budgets remaining after this transaction
	remainingDaily := p.Limits.DailyLimit - dailyUsed - amount
	remainingWeekly := p.Limits.WeeklyLimit - weeklyUsed - amount
	return CheckResult{
		Permitted:            true,
		RemainingDailyLimit:  &remainingDaily,
		RemainingWeeklyLimit: &remainingWeekly,
	}, nil
}

// RecordUsage adds an executed amount to the day and week counters.
func (m *Manager) RecordUsage(ctx context.Context, permissionID string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordUsage(ctx, permissionID, amount)
}

// recordUsage increments both counters. Caller must hold m.mu.
func (m *Manager) recordUsage(ctx context.Context, permissionID string, amount float64) error {
	now := m.now()
	if _, err := m.usage.Add(ctx, DayKey(permissionID, now), amount); err != nil {
		return fmt.Errorf("record daily usage: %w", err)
	}
	if _, err := m.usage.Add(ctx, WeekKey(permissionID, now), amount); err != nil {
		return fmt.Errorf("record weekly usage: %w", err)
	}
	return nil
}

// Authorize runs check and, when permitted, records the usage — all inside
// one critical section. This is the entry point trading paths must use.
func (m *Manager) Authorize(ctx context.Context, intent *domain.TradeIntent) (CheckResult, error) {
	p, err := m.perms.GetActiveByAgent(ctx, intent.AgentID)
	if err != nil {
		return CheckResult{}, fmt.Errorf("load permission for agent %s: %w", intent.AgentID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result, err := m.check(ctx, intent, p)
	if err != nil || !result.Permitted {
		return result, err
	}
	if err := m.recordUsage(ctx, p.PermissionID, intent.AmountUSD); err != nil {
		return CheckResult{}, err
	}
	return result, nil
}

// CleanupExpired deactivates every permission past its expiry and returns
// the count cleaned. In-flight checks that already loaded a permission are
// not interrupted.
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	all, err := m.perms.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list permissions: %w", err)
	}

	now := m.now()
	cleaned := 0
	for _, p := range all {
		if p.IsActive && now.After(p.ExpiresAt) {
			if err := m.perms.SetInactive(ctx, p.PermissionID); err != nil {
				m.logger.Printf("[permission] cleanup: deactivate %s: %v", p.PermissionID, err)
				continue
			}
			cleaned++
		}
	}
	return cleaned, nil
}

// denied builds a denial result.
func denied(reason, message string) CheckResult {
	return CheckResult{Reason: reason, Message: message}
}
