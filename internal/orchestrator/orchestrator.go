// Package orchestrator owns agent records, positions and performance
// counters, and runs the signal pipeline:
// signals → strategy → risk constraints → permission → execution → result.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/events"
	"agent-control-plane/internal/idhash"
	"agent-control-plane/internal/permission"
	"agent-control-plane/internal/risk"
	"agent-control-plane/internal/storage"
	"agent-control-plane/internal/strategy"
)

// Orchestrator errors
var (
	ErrStrategyNotFound = errors.New("strategy not found")
	ErrAgentNotFound    = errors.New("agent not found")
)

// ExecFunc attempts one trade intent against an execution venue.
// The orchestrator never talks to venues directly.
type ExecFunc func(ctx context.Context, intent *domain.TradeIntent) (*domain.ExecutionResult, error)

// Options for creating an Orchestrator.
type Options struct {
	// Required stores
	AgentStore     storage.AgentStore
	PositionStore  storage.PositionStore
	ExecutionStore storage.ExecutionStore

	// Collaborators
	Registry    *strategy.Registry
	Permissions *permission.Manager
	Risk        *risk.Controller // optional; no risk gating when nil
	Events      *events.Bus      // optional

	// Execute handles the venue call in RunCycle. Optional; without it
	// RunCycle stops after authorization.
	Execute ExecFunc

	Logger  *log.Logger
	Verbose bool
}

// Orchestrator is the root component of the control plane.
type Orchestrator struct {
	agents     storage.AgentStore
	positions  storage.PositionStore
	executions storage.ExecutionStore

	registry    *strategy.Registry
	permissions *permission.Manager
	risk        *risk.Controller
	events      *events.Bus
	execute     ExecFunc

	logger  *log.Logger
	verbose bool
	now     func() time.Time

	// Per-agent locks: kill and signal processing for the same agent are
	// critical sections spanning several store calls.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		agents:      opts.AgentStore,
		positions:   opts.PositionStore,
		executions:  opts.ExecutionStore,
		registry:    opts.Registry,
		permissions: opts.Permissions,
		risk:        opts.Risk,
		events:      opts.Events,
		execute:     opts.Execute,
		logger:      logger,
		verbose:     opts.Verbose,
		now:         time.Now,
		locks:       make(map[string]*sync.Mutex),
	}
}

// agentLock returns the mutex serializing operations for one agent.
func (o *Orchestrator) agentLock(agentID string) *sync.Mutex {
	o.locksMu.Lock()
	defer o.locksMu.Unlock()

	mu, exists := o.locks[agentID]
	if !exists {
		mu = &sync.Mutex{}
		o.locks[agentID] = mu
	}
	return mu
}

func (o *Orchestrator) log(format string, args ...any) {
	if o.verbose {
		o.logger.Printf("[orchestrator] "+format, args...)
	}
}

func (o *Orchestrator) publish(name, agentID string, payload any) {
	if o.events != nil {
		o.events.Publish(name, agentID, payload)
	}
}

// AgentSpec describes a new agent and its wallet permission grant.
type AgentSpec struct {
	UserID        string
	Name          string
	StrategyID    string
	WalletAddress string
	Config        domain.AgentConfig

	// Permission grant registered alongside the agent
	AllowedActions []domain.PermissionAction
	Limits         domain.PermissionLimits
	PermissionTTL  time.Duration
}

// CreateAgent registers a new agent with status active and zeroed
// performance, and registers its wallet permission. Fails with
// ErrStrategyNotFound when the referenced strategy does not exist.
func (o *Orchestrator) CreateAgent(ctx context.Context, spec AgentSpec) (*domain.AgentRecord, error) {
	if _, err := o.registry.Get(spec.StrategyID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, spec.StrategyID)
	}

	now := o.now()
	agent := &domain.AgentRecord{
		AgentID:       idhash.ComputeAgentID(spec.UserID, spec.WalletAddress, now.UnixMilli()),
		UserID:        spec.UserID,
		Name:          spec.Name,
		Status:        domain.AgentStatusActive,
		StrategyID:    spec.StrategyID,
		WalletAddress: spec.WalletAddress,
		Config:        spec.Config,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := o.agents.Insert(ctx, agent); err != nil {
		return nil, fmt.Errorf("insert agent: %w", err)
	}

	perm := &domain.WalletPermission{
		PermissionID:   idhash.ComputePermissionID(agent.AgentID, spec.WalletAddress, now.UnixMilli()),
		AgentID:        agent.AgentID,
		WalletAddress:  spec.WalletAddress,
		IsActive:       true,
		AllowedActions: spec.AllowedActions,
		Limits:         spec.Limits,
		ExpiresAt:      now.Add(spec.PermissionTTL),
		CreatedAt:      now,
	}
	if err := o.permissions.RegisterPermission(ctx, perm); err != nil {
		return nil, fmt.Errorf("register permission: %w", err)
	}

	o.log("created agent %s (user %s, strategy %s)", agent.AgentID, spec.UserID, spec.StrategyID)
	o.publish(domain.EventAgentCreated, agent.AgentID, agent)
	return agent, nil
}

// GetAgent retrieves an agent by id.
func (o *Orchestrator) GetAgent(ctx context.Context, agentID string) (*domain.AgentRecord, error) {
	return o.agents.GetByID(ctx, agentID)
}

// ListAgentsByUser retrieves all agents owned by a user.
func (o *Orchestrator) ListAgentsByUser(ctx context.Context, userID string) ([]*domain.AgentRecord, error) {
	return o.agents.GetByUser(ctx, userID)
}

// ProcessSignals evaluates the agent's strategy against a signal batch.
// Returns nil without error when the agent is missing or not active, or
// when the strategy produces no intent. A produced intent is stamped with
// agent/strategy ids, a deterministic intent id, and creation time.
func (o *Orchestrator) ProcessSignals(ctx context.Context, agentID string, signals []domain.Signal) (*domain.TradeIntent, error) {
	mu := o.agentLock(agentID)
	mu.Lock()
	defer mu.Unlock()

	agent, err := o.agents.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load agent: %w", err)
	}
	if agent.Status != domain.AgentStatusActive {
		return nil, nil
	}

	strat, err := o.registry.Get(agent.StrategyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, agent.StrategyID)
	}

	intent := strat.Evaluate(signals)
	if intent == nil {
		return nil, nil
	}

	now := o.now()
	intent.AgentID = agent.AgentID
	intent.StrategyID = agent.StrategyID
	intent.CreatedAt = now
	intent.Status = domain.IntentStatusPending
	intent.IntentID = idhash.ComputeIntentID(
		agent.AgentID, agent.StrategyID, intent.Market, string(intent.Side), now.UnixMilli())

	o.log("agent %s generated intent %s (%s %s %.2f USD)",
		agentID, intent.IntentID, intent.Side, intent.Market, intent.AmountUSD)
	o.publish(domain.EventIntentGenerated, agentID, intent)
	return intent, nil
}

// RecordExecution aggregates one execution result into the agent's
// performance counters and appends it to the audit trail. Recording after
// a kill is not an error, merely logged.
func (o *Orchestrator) RecordExecution(ctx context.Context, agentID string, result *domain.ExecutionResult) error {
	mu := o.agentLock(agentID)
	mu.Lock()
	defer mu.Unlock()

	agent, err := o.agents.GetByID(ctx, agentID)
	if err != nil {
		return fmt.Errorf("load agent: %w", err)
	}
	if agent.Status == domain.AgentStatusStopped {
		o.logger.Printf("[orchestrator] agent %s: execution result recorded after kill", agentID)
	}

	agent.Performance.TotalTrades++
	if result.Success {
		if result.RealizedPnL > 0 {
			agent.Performance.WinningTrades++
		}
		agent.Performance.TotalPnL += result.RealizedPnL
		agent.Performance.DailyPnL += result.RealizedPnL
	}
	agent.Performance.WinRate = float64(agent.Performance.WinningTrades) / float64(agent.Performance.TotalTrades)
	agent.UpdatedAt = o.now()

	if err := o.agents.Update(ctx, agent); err != nil {
		return fmt.Errorf("update agent: %w", err)
	}
	if err := o.executions.Insert(ctx, result); err != nil {
		return fmt.Errorf("append execution result: %w", err)
	}

	if result.Success {
		o.publish(domain.EventExecutionCompleted, agentID, result)
	} else {
		o.publish(domain.EventExecutionFailed, agentID, result)
	}
	return nil
}

// AddPosition opens a position for an agent and recomputes the open
// position count. A missing PositionID is stamped deterministically.
func (o *Orchestrator) AddPosition(ctx context.Context, agentID string, pos *domain.Position) error {
	mu := o.agentLock(agentID)
	mu.Lock()
	defer mu.Unlock()

	if pos.OpenedAt.IsZero() {
		pos.OpenedAt = o.now()
	}
	if pos.PositionID == "" {
		pos.PositionID = idhash.ComputePositionID(agentID, pos.Market, pos.OpenedAt.UnixMilli())
	}
	pos.AgentID = agentID

	if err := o.positions.Insert(ctx, pos); err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	if err := o.refreshPositionCount(ctx, agentID); err != nil {
		return err
	}

	o.publish(domain.EventPositionOpened, agentID, pos)
	return nil
}

// ClosePosition removes a position and recomputes the open position count.
func (o *Orchestrator) ClosePosition(ctx context.Context, agentID, positionID string) error {
	mu := o.agentLock(agentID)
	mu.Lock()
	defer mu.Unlock()

	if err := o.positions.Delete(ctx, positionID); err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	if err := o.refreshPositionCount(ctx, agentID); err != nil {
		return err
	}

	o.publish(domain.EventPositionClosed, agentID, positionID)
	return nil
}

// GetPositions returns the agent's open positions.
func (o *Orchestrator) GetPositions(ctx context.Context, agentID string) ([]*domain.Position, error) {
	return o.positions.GetByAgent(ctx, agentID)
}

// refreshPositionCount recounts open positions into the performance
// snapshot. Caller must hold the agent lock.
func (o *Orchestrator) refreshPositionCount(ctx context.Context, agentID string) error {
	agent, err := o.agents.GetByID(ctx, agentID)
	if err != nil {
		return fmt.Errorf("load agent: %w", err)
	}
	open, err := o.positions.GetByAgent(ctx, agentID)
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	agent.Performance.CurrentPositions = len(open)
	agent.UpdatedAt = o.now()
	if err := o.agents.Update(ctx, agent); err != nil {
		return fmt.Errorf("update agent: %w", err)
	}
	return nil
}

// PauseAgent transitions an agent to paused. Returns false when the agent
// does not exist or the transition is not allowed.
func (o *Orchestrator) PauseAgent(ctx context.Context, agentID string) bool {
	return o.setStatus(ctx, agentID, domain.AgentStatusPaused)
}

// ResumeAgent transitions a paused agent back to active. Returns false when
// the agent does not exist or the transition is not allowed.
func (o *Orchestrator) ResumeAgent(ctx context.Context, agentID string) bool {
	return o.setStatus(ctx, agentID, domain.AgentStatusActive)
}

func (o *Orchestrator) setStatus(ctx context.Context, agentID string, to domain.AgentStatus) bool {
	mu := o.agentLock(agentID)
	mu.Lock()
	defer mu.Unlock()

	agent, err := o.agents.GetByID(ctx, agentID)
	if err != nil {
		return false
	}
	if !domain.ValidAgentTransition(agent.Status, to) {
		return false
	}

	agent.Status = to
	agent.UpdatedAt = o.now()
	if err := o.agents.Update(ctx, agent); err != nil {
		o.logger.Printf("[orchestrator] agent %s: status update failed: %v", agentID, err)
		return false
	}
	return true
}

// KillResult is the bookkeeping outcome of an agent kill.
type KillResult struct {
	Success         bool
	PositionsClosed int
	FundsReturned   float64 // sum of mark-to-market values of cleared positions

	// Positions holds the cleared positions so the caller can close them
	// for real on the venues.
	Positions []*domain.Position
}

// KillAgent stops an agent permanently: status goes to stopped first (so no
// further intents are generated), then all open positions are snapshotted
// and cleared, then the active permission is revoked. Unknown or already
// stopped agents return Success=false with no side effects.
func (o *Orchestrator) KillAgent(ctx context.Context, agentID string) KillResult {
	mu := o.agentLock(agentID)
	mu.Lock()
	defer mu.Unlock()

	agent, err := o.agents.GetByID(ctx, agentID)
	if err != nil {
		return KillResult{}
	}
	if agent.Status == domain.AgentStatusStopped {
		return KillResult{}
	}

	// Status first: concurrent ProcessSignals checks active before
	// evaluating, so no new intents are generated past this point.
	agent.Status = domain.AgentStatusStopped
	agent.UpdatedAt = o.now()
	if err := o.agents.Update(ctx, agent); err != nil {
		o.logger.Printf("[orchestrator] kill %s: status update failed: %v", agentID, err)
		return KillResult{}
	}

	cleared, err := o.positions.DeleteByAgent(ctx, agentID)
	if err != nil {
		o.logger.Printf("[orchestrator] kill %s: clear positions failed: %v", agentID, err)
		cleared = nil
	}

	fundsReturned := 0.0
	for _, p := range cleared {
		fundsReturned += p.MarkToMarket()
	}

	agent.Performance.CurrentPositions = 0
	agent.UpdatedAt = o.now()
	if err := o.agents.Update(ctx, agent); err != nil {
		o.logger.Printf("[orchestrator] kill %s: performance update failed: %v", agentID, err)
	}

	if perm, err := o.permissions.GetPermissionByAgent(ctx, agentID); err == nil {
		if err := o.permissions.RevokePermission(ctx, perm.PermissionID); err != nil {
			o.logger.Printf("[orchestrator] kill %s: revoke permission failed: %v", agentID, err)
		}
	}

	o.log("killed agent %s: %d positions cleared, %.2f USD returned", agentID, len(cleared), fundsReturned)
	return KillResult{
		Success:         true,
		PositionsClosed: len(cleared),
		FundsReturned:   fundsReturned,
		Positions:       cleared,
	}
}
