package risk

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/events"
	"agent-control-plane/internal/resilience"
	"agent-control-plane/internal/storage"
)

// Constraint rejection reason
const ReasonTradingHibernated = "TradingHibernated"

// ConstraintResult is the outcome of applying survival-mode constraints
// to a trade intent. When Allowed, the intent may have been adjusted
// (size halved, leverage clamped) in place.
type ConstraintResult struct {
	Allowed bool
	Reason  string
	Message string

	SizeAdjusted    bool
	LeverageClamped bool
}

// RemoteClient fetches the authoritative survival status from a remote
// risk service. Implemented by riskfeed.Client.
type RemoteClient interface {
	FetchStatus(ctx context.Context) (*domain.SurvivalStatus, error)
}

// Options configures a Controller.
type Options struct {
	WalletAddress string
	StartBalance  float64

	// Thresholds and ModeParams default to the canonical tables when zero/nil.
	Thresholds *Thresholds
	ModeParams map[domain.SurvivalMode]ModeParams

	// Transitions receives the immutable mode-change history. Required.
	Transitions storage.TransitionStore

	// Events receives mode.changed and critical.entered. Optional.
	Events *events.Bus

	// Remote, when set, backs GetRemoteStatus; calls go through the
	// resilient adapter. Optional.
	Remote        RemoteClient
	RemoteAdapter resilience.AdapterConfig

	Logger *log.Logger
}

// Controller owns the survival status for one wallet and its transition
// history. Recomputation is pure in (start balance, current balance,
// threshold table); history is append-only.
type Controller struct {
	wallet     string
	thresholds Thresholds
	params     map[domain.SurvivalMode]ModeParams

	transitions storage.TransitionStore
	events      *events.Bus
	remote      RemoteClient
	adapter     *resilience.Adapter
	logger      *log.Logger
	now         func() time.Time

	mu     sync.Mutex
	status domain.SurvivalStatus
}

// NewController creates a survival controller starting in the mode implied
// by a zero P&L (normal under the default table).
func NewController(opts Options) *Controller {
	thresholds := DefaultThresholds()
	if opts.Thresholds != nil {
		thresholds = *opts.Thresholds
	}
	params := opts.ModeParams
	if params == nil {
		params = DefaultModeParams()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &Controller{
		wallet:      opts.WalletAddress,
		thresholds:  thresholds,
		params:      params,
		transitions: opts.Transitions,
		events:      opts.Events,
		remote:      opts.Remote,
		logger:      logger,
		now:         time.Now,
	}
	if opts.Remote != nil {
		cfg := opts.RemoteAdapter
		if cfg.Name == "" {
			cfg.Name = "risk-service"
		}
		c.adapter = resilience.NewAdapter(cfg)
	}

	mode := thresholds.ModeFor(0)
	c.status = c.statusFor(mode, 0, opts.StartBalance, opts.StartBalance)
	c.status.PreviousMode = mode
	return c
}

// statusFor builds a status snapshot for a mode. Caller fills audit fields.
func (c *Controller) statusFor(mode domain.SurvivalMode, pnlPercent, start, current float64) domain.SurvivalStatus {
	p := c.params[mode]
	return domain.SurvivalStatus{
		Mode:               mode,
		PnLPercent:         pnlPercent,
		MaxAllocationPct:   p.MaxAllocationPct,
		RiskMultiplier:     p.RiskMultiplier,
		CanOpenNewPosition: p.CanOpenNewPosition,
		MaxLeverage:        p.MaxLeverage,
		StartBalance:       start,
		CurrentBalance:     current,
	}
}

// Status returns the current survival status snapshot.
func (c *Controller) Status() domain.SurvivalStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// RecomputeMode re-derives the survival mode from a balance update.
// A mode change appends one immutable history entry and emits mode.changed
// (plus critical.entered when the new mode is critical). Recomputing the
// same balance twice never produces a duplicate history entry.
func (c *Controller) RecomputeMode(ctx context.Context, currentBalance float64) (domain.SurvivalStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.status.StartBalance
	pnlPercent := 0.0
	if start > 0 {
		pnlPercent = (currentBalance - start) / start * 100
	}
	mode := c.thresholds.ModeFor(pnlPercent)

	next := c.statusFor(mode, pnlPercent, start, currentBalance)

	if mode == c.status.Mode {
		// No transition: keep the audit trail of the last one.
		next.PreviousMode = c.status.PreviousMode
		next.TransitionMs = c.status.TransitionMs
		c.status = next
		return next, nil
	}

	now := c.now()
	next.PreviousMode = c.status.Mode
	next.TransitionMs = now.UnixMilli()

	entry := &domain.ModeTransition{
		WalletAddress:   c.wallet,
		FromMode:        c.status.Mode,
		ToMode:          mode,
		PortfolioValue:  currentBalance,
		PortfolioChange: pnlPercent,
		Reason:          fmt.Sprintf("pnl %.2f%% crossed into %s", pnlPercent, mode),
		TimestampMs:     now.UnixMilli(),
	}
	if err := c.transitions.Insert(ctx, entry); err != nil {
		return c.status, fmt.Errorf("append mode transition: %w", err)
	}

	c.logger.Printf("[risk] wallet %s mode %s -> %s (pnl %.2f%%)", c.wallet, c.status.Mode, mode, pnlPercent)
	c.status = next

	if c.events != nil {
		c.events.Publish(domain.EventModeChanged, "", entry)
		if mode == domain.ModeCritical {
			c.events.Publish(domain.EventCriticalEntered, "", entry)
		}
	}
	return next, nil
}

// History returns the wallet's transition history, oldest first.
func (c *Controller) History(ctx context.Context) ([]*domain.ModeTransition, error) {
	return c.transitions.GetByWallet(ctx, c.wallet)
}

// ApplyConstraints enforces the mode's constraints on an intent, adjusting
// it in place. Close intents are always allowed; defensive mode halves the
// size; critical and hibernation reject anything that opens exposure.
// Leverage is clamped to the mode's MaxLeverage when one is set.
func (c *Controller) ApplyConstraints(intent *domain.TradeIntent, status domain.SurvivalStatus) ConstraintResult {
	isClose := intent.Side == domain.SideClose

	if !isClose && !status.CanOpenNewPosition {
		return ConstraintResult{
			Reason:  ReasonTradingHibernated,
			Message: fmt.Sprintf("mode %s permits exit actions only", status.Mode),
		}
	}

	result := ConstraintResult{Allowed: true}

	if status.Mode == domain.ModeDefensive && !isClose {
		intent.Size /= 2
		intent.AmountUSD /= 2
		result.SizeAdjusted = true
	}

	if status.MaxLeverage > 0 && intent.Leverage > status.MaxLeverage {
		intent.Leverage = status.MaxLeverage
		result.LeverageClamped = true
	}
	return result
}

// GetRemoteStatus fetches the authoritative status from the remote risk
// service through the resilient adapter. On any failure (including an open
// circuit) it falls back to the pure local recomputation using the last
// known balances; the degradation is logged, never raised.
func (c *Controller) GetRemoteStatus(ctx context.Context) domain.SurvivalStatus {
	if c.remote != nil {
		remote, err := resilience.ExecuteWithResult(ctx, c.adapter, c.remote.FetchStatus)
		if err == nil && remote != nil {
			return *remote
		}
		c.logger.Printf("[risk] remote risk service unavailable, using local status: %v", err)
	}

	c.mu.Lock()
	current := c.status.CurrentBalance
	c.mu.Unlock()

	status, err := c.RecomputeMode(ctx, current)
	if err != nil {
		c.logger.Printf("[risk] local recompute failed: %v", err)
		return c.Status()
	}
	return status
}
