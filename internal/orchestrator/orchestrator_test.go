package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/events"
	"agent-control-plane/internal/permission"
	"agent-control-plane/internal/storage"
	"agent-control-plane/internal/storage/memory"
	"agent-control-plane/internal/strategy"
)

type testEnv struct {
	orch    *Orchestrator
	agents  *memory.AgentStore
	perms   *memory.PermissionStore
	manager *permission.Manager
	bus     *events.Bus
}

func f64(v float64) *float64 { return &v }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	registry := strategy.NewRegistry()
	if err := registry.Register(domain.StrategyConfig{
		StrategyID:     "strat-1",
		OwnerID:        "user-1",
		StrategyType:   domain.StrategyTypeMomentum,
		Market:         "SOL-USDC",
		EntryChangePct: f64(5),
		BaseSizeUSD:    f64(200),
	}); err != nil {
		t.Fatalf("register strategy: %v", err)
	}

	agents := memory.NewAgentStore()
	perms := memory.NewPermissionStore()
	manager := permission.NewManager(permission.Options{
		PermissionStore: perms,
		UsageStore:      memory.NewUsageStore(),
	})
	bus := events.NewBus()

	orch := New(Options{
		AgentStore:     agents,
		PositionStore:  memory.NewPositionStore(),
		ExecutionStore: memory.NewExecutionStore(),
		Registry:       registry,
		Permissions:    manager,
		Events:         bus,
	})
	return &testEnv{orch: orch, agents: agents, perms: perms, manager: manager, bus: bus}
}

func testSpec() AgentSpec {
	return AgentSpec{
		UserID:         "user-1",
		Name:           "sol bot",
		StrategyID:     "strat-1",
		WalletAddress:  "wallet-1",
		AllowedActions: []domain.PermissionAction{domain.ActionPlaceOrder, domain.ActionClosePosition},
		Limits: domain.PermissionLimits{
			MaxTransactionValue: 500,
			DailyLimit:          1000,
			WeeklyLimit:         5000,
		},
		PermissionTTL: 24 * time.Hour,
	}
}

func upSignal() []domain.Signal {
	return []domain.Signal{{
		Kind:      domain.SignalKindPrice,
		Market:    "SOL-USDC",
		Value:     100,
		Change24h: 8,
		Timestamp: time.Now(),
	}}
}

func TestCreateAgent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	agent, err := env.orch.CreateAgent(ctx, testSpec())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if agent.Status != domain.AgentStatusActive {
		t.Errorf("status = %s, want active", agent.Status)
	}
	if agent.Performance.TotalTrades != 0 || agent.Performance.TotalPnL != 0 {
		t.Error("performance must start zeroed")
	}
	if agent.AgentID == "" {
		t.Error("agent id must be stamped")
	}

	// Permission was registered alongside
	perm, err := env.manager.GetPermissionByAgent(ctx, agent.AgentID)
	if err != nil {
		t.Fatalf("get permission: %v", err)
	}
	if !perm.IsActive || perm.Limits.DailyLimit != 1000 {
		t.Errorf("permission not registered correctly: %+v", perm)
	}
}

func TestCreateAgentUnknownStrategy(t *testing.T) {
	env := newTestEnv(t)
	spec := testSpec()
	spec.StrategyID = "strat-missing"

	_, err := env.orch.CreateAgent(context.Background(), spec)
	if !errors.Is(err, ErrStrategyNotFound) {
		t.Errorf("err = %v, want ErrStrategyNotFound", err)
	}
}

func TestProcessSignals(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	agent, err := env.orch.CreateAgent(ctx, testSpec())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	intent, err := env.orch.ProcessSignals(ctx, agent.AgentID, upSignal())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if intent == nil {
		t.Fatal("expected an intent for a strong up move")
	}
	if intent.AgentID != agent.AgentID || intent.StrategyID != "strat-1" {
		t.Error("intent must be stamped with agent and strategy ids")
	}
	if intent.IntentID == "" {
		t.Error("intent id must be stamped")
	}
	if intent.CreatedAt.IsZero() {
		t.Error("creation time must be stamped")
	}

	// Flat market: no intent
	flat := upSignal()
	flat[0].Change24h = 1
	intent, err = env.orch.ProcessSignals(ctx, agent.AgentID, flat)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if intent != nil {
		t.Errorf("expected no intent, got %+v", intent)
	}
}

func TestProcessSignalsInactiveAgent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	agent, err := env.orch.CreateAgent(ctx, testSpec())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !env.orch.PauseAgent(ctx, agent.AgentID) {
		t.Fatal("pause failed")
	}
	intent, err := env.orch.ProcessSignals(ctx, agent.AgentID, upSignal())
	if err != nil || intent != nil {
		t.Errorf("paused agent: got (%v, %v), want (nil, nil)", intent, err)
	}

	// Unknown agent is a silent no-op too
	intent, err = env.orch.ProcessSignals(ctx, "agent-missing", upSignal())
	if err != nil || intent != nil {
		t.Errorf("missing agent: got (%v, %v), want (nil, nil)", intent, err)
	}
}

func TestPauseResumeTransitions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	agent, err := env.orch.CreateAgent(ctx, testSpec())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !env.orch.PauseAgent(ctx, agent.AgentID) {
		t.Error("active -> paused should succeed")
	}
	if env.orch.PauseAgent(ctx, agent.AgentID) {
		t.Error("paused -> paused should fail")
	}
	if !env.orch.ResumeAgent(ctx, agent.AgentID) {
		t.Error("paused -> active should succeed")
	}
	if env.orch.PauseAgent(ctx, "agent-missing") {
		t.Error("pausing an unknown agent should return false")
	}

	env.orch.KillAgent(ctx, agent.AgentID)
	if env.orch.ResumeAgent(ctx, agent.AgentID) {
		t.Error("stopped is terminal, resume must fail")
	}
}

func TestRecordExecutionAggregates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	agent, err := env.orch.CreateAgent(ctx, testSpec())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	results := []*domain.ExecutionResult{
		{IntentID: "i1", AgentID: agent.AgentID, Success: true, RealizedPnL: 50, ExecutedAt: time.Now()},
		{IntentID: "i2", AgentID: agent.AgentID, Success: true, RealizedPnL: -20, ExecutedAt: time.Now()},
		{IntentID: "i3", AgentID: agent.AgentID, Success: false, Error: "venue timeout", ExecutedAt: time.Now()},
	}
	for _, r := range results {
		if err := env.orch.RecordExecution(ctx, agent.AgentID, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := env.orch.GetAgent(ctx, agent.AgentID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	p := got.Performance
	if p.TotalTrades != 3 {
		t.Errorf("total trades = %d, want 3", p.TotalTrades)
	}
	if p.WinningTrades != 1 {
		t.Errorf("winning trades = %d, want 1", p.WinningTrades)
	}
	if p.TotalPnL != 30 {
		t.Errorf("total pnl = %.2f, want 30", p.TotalPnL)
	}
	if p.WinRate < 0.33 || p.WinRate > 0.34 {
		t.Errorf("win rate = %.3f, want 1/3", p.WinRate)
	}
}

func TestPositionLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	agent, err := env.orch.CreateAgent(ctx, testSpec())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pos := &domain.Position{Market: "SOL-USDC", Side: domain.SideBuy, Amount: 2, EntryPrice: 100}
	if err := env.orch.AddPosition(ctx, agent.AgentID, pos); err != nil {
		t.Fatalf("add: %v", err)
	}
	if pos.PositionID == "" {
		t.Error("position id must be stamped")
	}

	got, _ := env.orch.GetAgent(ctx, agent.AgentID)
	if got.Performance.CurrentPositions != 1 {
		t.Errorf("current positions = %d, want 1", got.Performance.CurrentPositions)
	}

	if err := env.orch.ClosePosition(ctx, agent.AgentID, pos.PositionID); err != nil {
		t.Fatalf("close: %v", err)
	}
	got, _ = env.orch.GetAgent(ctx, agent.AgentID)
	if got.Performance.CurrentPositions != 0 {
		t.Errorf("current positions = %d, want 0", got.Performance.CurrentPositions)
	}
}

func TestKillAgent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	agent, err := env.orch.CreateAgent(ctx, testSpec())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	positions := []*domain.Position{
		{Market: "SOL-USDC", Side: domain.SideBuy, Amount: 2, EntryPrice: 100, CurrentPrice: 110},
		{Market: "ETH-USDC", Side: domain.SideBuy, Amount: 1, EntryPrice: 3000},
	}
	for _, p := range positions {
		p.OpenedAt = time.Now().Add(-time.Duration(len(p.Market)) * time.Minute)
		if err := env.orch.AddPosition(ctx, agent.AgentID, p); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	res := env.orch.KillAgent(ctx, agent.AgentID)
	if !res.Success {
		t.Fatal("kill should succeed")
	}
	if res.PositionsClosed != 2 {
		t.Errorf("positions closed = %d, want 2", res.PositionsClosed)
	}
	// 2*110 (marked) + 1*3000 (entry fallback)
	if res.FundsReturned != 3220 {
		t.Errorf("funds returned = %.2f, want 3220", res.FundsReturned)
	}
	if len(res.Positions) != 2 {
		t.Errorf("returned positions = %d, want 2", len(res.Positions))
	}

	got, err := env.orch.GetAgent(ctx, agent.AgentID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.AgentStatusStopped {
		t.Errorf("status = %s, want stopped", got.Status)
	}
	if got.Performance.CurrentPositions != 0 {
		t.Error("position count must be zeroed")
	}

	open, _ := env.orch.GetPositions(ctx, agent.AgentID)
	if len(open) != 0 {
		t.Errorf("open positions = %d, want 0", len(open))
	}

	// Permission revoked
	if _, err := env.manager.GetPermissionByAgent(ctx, agent.AgentID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected revoked permission, got %v", err)
	}
}

func TestKillAgentIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	agent, err := env.orch.CreateAgent(ctx, testSpec())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if res := env.orch.KillAgent(ctx, agent.AgentID); !res.Success {
		t.Fatal("first kill should succeed")
	}
	second := env.orch.KillAgent(ctx, agent.AgentID)
	if second.Success {
		t.Error("second kill must return Success=false")
	}
	if second.PositionsClosed != 0 || second.FundsReturned != 0 {
		t.Error("second kill must have no side effects")
	}

	if res := env.orch.KillAgent(ctx, "agent-missing"); res.Success {
		t.Error("killing an unknown agent must return Success=false")
	}
}

func TestKillAgentStopsSignalProcessing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	agent, err := env.orch.CreateAgent(ctx, testSpec())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.orch.ProcessSignals(ctx, agent.AgentID, upSignal())
		}()
	}
	env.orch.KillAgent(ctx, agent.AgentID)
	wg.Wait()

	// After the kill completes, no further intents are generated
	intent, err := env.orch.ProcessSignals(ctx, agent.AgentID, upSignal())
	if err != nil || intent != nil {
		t.Errorf("got (%v, %v), want (nil, nil) after kill", intent, err)
	}
}
