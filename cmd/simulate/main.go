// Package main runs a closed-loop simulation of the control plane:
// synthetic price signals drive registered agents through strategy
// evaluation, risk gating, permission checks, and a flaky paper venue,
// while the portfolio balance walks the survival-mode ladder.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/events"
	"agent-control-plane/internal/orchestrator"
	"agent-control-plane/internal/permission"
	"agent-control-plane/internal/resilience"
	"agent-control-plane/internal/risk"
	"agent-control-plane/internal/storage/memory"
	"agent-control-plane/internal/strategy"
)

type simStats struct {
	Cycles            int     `json:"cycles"`
	IntentsGenerated  int     `json:"intents_generated"`
	IntentsExecuted   int     `json:"intents_executed"`
	RiskRejections    int     `json:"risk_rejections"`
	PermissionDenials int     `json:"permission_denials"`
	VenueFailures     int     `json:"venue_failures"`
	ModeTransitions   int     `json:"mode_transitions"`
	FinalBalance      float64 `json:"final_balance"`
	FinalMode         string  `json:"final_mode"`
	KilledPositions   int     `json:"killed_positions"`
	FundsReturned     float64 `json:"funds_returned"`
}

func main() {
	agentCount := flag.Int("agents", 3, "Number of agents to register")
	cycles := flag.Int("cycles", 50, "Signal cycles to run")
	startBalance := flag.Float64("start-balance", 10000, "Portfolio start balance in USD")
	failRate := flag.Float64("fail-rate", 0.1, "Probability of a venue call failing")
	crashAt := flag.Int("crash-at", 30, "Cycle at which the market crashes (0 = never)")
	seed := flag.Int64("seed", 42, "Random seed")
	outputJSON := flag.Bool("json", false, "Output summary as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)
	rng := rand.New(rand.NewSource(*seed))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus()
	transitions := memory.NewTransitionStore()

	perms := permission.NewManager(permission.Options{
		PermissionStore: memory.NewPermissionStore(),
		UsageStore:      memory.NewUsageStore(),
		Logger:          log.New(os.Stderr, "[permission] ", log.LstdFlags),
	})

	riskCtrl := risk.NewController(risk.Options{
		WalletAddress: "sim-wallet",
		StartBalance:  *startBalance,
		Transitions:   transitions,
		Events:        bus,
		Logger:        log.New(os.Stderr, "[risk] ", log.LstdFlags),
	})

	registry := strategy.NewRegistry()
	seedStrategies(logger, registry)

	stats := &simStats{}

	venue := flakyVenue(rng, *failRate, stats)

	orch := orchestrator.New(orchestrator.Options{
		AgentStore:     memory.NewAgentStore(),
		PositionStore:  memory.NewPositionStore(),
		ExecutionStore: memory.NewExecutionStore(),
		Registry:       registry,
		Permissions:    perms,
		Risk:           riskCtrl,
		Events:         bus,
		Execute:        venue,
		Logger:         log.New(os.Stderr, "[orchestrator] ", log.LstdFlags),
	})

	agentIDs := seedAgents(ctx, logger, orch, *agentCount)

	// Track mode transitions through the bus
	modeSub := bus.Subscribe(domain.EventModeChanged)
	defer bus.Unsubscribe(modeSub)

	balance := *startBalance
	price := 100.0

	for cycle := 1; cycle <= *cycles; cycle++ {
		drift := rng.NormFloat64() * 2
		if *crashAt > 0 && cycle >= *crashAt {
			drift -= 4 // sustained downtrend after the crash
		}
		price *= 1 + drift/100

		change24h := drift * 4 // compress a day of movement into one cycle
		signals := []domain.Signal{
			{Kind: domain.SignalKindPrice, Market: "SOL-PERP", Value: price, Change24h: change24h, Timestamp: time.Now()},
			{Kind: domain.SignalKindVolume, Market: "SOL-PERP", Volume: 1e6 * rng.Float64(), Timestamp: time.Now()},
		}

		for _, agentID := range agentIDs {
			result, err := orch.RunCycle(ctx, agentID, signals)
			if err != nil {
				logger.Printf("cycle %d agent %s: %v", cycle, agentID[:8], err)
				continue
			}
			tallyCycle(stats, result, &balance)
		}

		// Mark open books and fold unrealized P&L into the portfolio balance
		marked := balance
		for _, agentID := range agentIDs {
			if err := orch.MarkPositions(ctx, agentID, map[string]float64{"SOL-PERP": price}); err != nil {
				continue
			}
			positions, err := orch.GetPositions(ctx, agentID)
			if err != nil {
				continue
			}
			for _, p := range positions {
				marked += p.UnrealizedPnL
			}
		}

		if _, err := riskCtrl.RecomputeMode(ctx, marked); err != nil {
			logger.Printf("cycle %d recompute mode: %v", cycle, err)
		}
		stats.Cycles = cycle
	}

	// Drain mode-change notifications
	for {
		select {
		case <-modeSub.C():
			stats.ModeTransitions++
			continue
		default:
		}
		break
	}

	// Kill the first agent to demonstrate the kill switch
	if len(agentIDs) > 0 {
		kill := orch.KillAgent(ctx, agentIDs[0])
		stats.KilledPositions = kill.PositionsClosed
		stats.FundsReturned = kill.FundsReturned
		logger.Printf("killed agent %s: %d positions cleared, %.2f USD returned",
			agentIDs[0][:8], kill.PositionsClosed, kill.FundsReturned)
	}

	status := riskCtrl.Status()
	stats.FinalBalance = status.CurrentBalance
	stats.FinalMode = string(status.Mode)

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			logger.Fatalf("encode summary: %v", err)
		}
		return
	}

	fmt.Println("=== Simulation Summary ===")
	fmt.Printf("Cycles:             %d\n", stats.Cycles)
	fmt.Printf("Intents generated:  %d\n", stats.IntentsGenerated)
	fmt.Printf("Intents executed:   %d\n", stats.IntentsExecuted)
	fmt.Printf("Risk rejections:    %d\n", stats.RiskRejections)
	fmt.Printf("Permission denials: %d\n", stats.PermissionDenials)
	fmt.Printf("Venue failures:     %d\n", stats.VenueFailures)
	fmt.Printf("Mode transitions:   %d\n", stats.ModeTransitions)
	fmt.Printf("Final balance:      %.2f USD (%s mode)\n", stats.FinalBalance, stats.FinalMode)
	fmt.Printf("Kill switch:        %d positions, %.2f USD returned\n", stats.KilledPositions, stats.FundsReturned)
}

// seedStrategies registers one momentum and one mean-reversion strategy.
func seedStrategies(logger *log.Logger, registry *strategy.Registry) {
	entry := 5.0
	size := 250.0
	ref := 100.0
	band := 3.0

	configs := []domain.StrategyConfig{
		{
			StrategyID:     "sim-momentum",
			OwnerID:        "sim",
			Name:           "sim momentum",
			StrategyType:   domain.StrategyTypeMomentum,
			Market:         "SOL-PERP",
			EntryChangePct: &entry,
			BaseSizeUSD:    &size,
			Leverage:       2,
		},
		{
			StrategyID:     "sim-reversion",
			OwnerID:        "sim",
			Name:           "sim mean reversion",
			StrategyType:   domain.StrategyTypeMeanReversion,
			Market:         "SOL-PERP",
			ReferencePrice: &ref,
			BandPct:        &band,
			BaseSizeUSD:    &size,
		},
	}

	for _, cfg := range configs {
		if err := registry.Register(cfg); err != nil {
			logger.Fatalf("register strategy %s: %v", cfg.StrategyID, err)
		}
	}
}

// seedAgents creates agents alternating between the seeded strategies.
func seedAgents(ctx context.Context, logger *log.Logger, orch *orchestrator.Orchestrator, count int) []string {
	strategies := []string{"sim-momentum", "sim-reversion"}

	var ids []string
	for i := 0; i < count; i++ {
		agent, err := orch.CreateAgent(ctx, orchestrator.AgentSpec{
			UserID:        "sim-user",
			Name:          fmt.Sprintf("sim agent %d", i+1),
			StrategyID:    strategies[i%len(strategies)],
			WalletAddress: fmt.Sprintf("sim-wallet-%d", i+1),
			Config: domain.AgentConfig{
				MaxPositionSize: 500,
				MaxDailyLoss:    200,
				RiskTier:        "balanced",
				AutoExecute:     true,
			},
			AllowedActions: []domain.PermissionAction{domain.ActionPlaceOrder, domain.ActionClosePosition},
			Limits: domain.PermissionLimits{
				MaxTransactionValue: 600,
				DailyLimit:          5000,
				WeeklyLimit:         20000,
			},
			PermissionTTL: 24 * time.Hour,
		})
		if err != nil {
			logger.Fatalf("create agent %d: %v", i+1, err)
		}
		ids = append(ids, agent.AgentID)
	}

	logger.Printf("registered %d agents", len(ids))
	return ids
}

// flakyVenue fills at target price but fails a fraction of calls, which
// exercises the retry and circuit-breaker path in front of it.
func flakyVenue(rng *rand.Rand, failRate float64, stats *simStats) orchestrator.ExecFunc {
	adapter := resilience.NewAdapter(resilience.AdapterConfig{
		Name:  "sim-venue",
		Retry: resilience.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond},
	})

	return func(ctx context.Context, intent *domain.TradeIntent) (*domain.ExecutionResult, error) {
		return resilience.ExecuteWithResult(ctx, adapter, func(ctx context.Context) (*domain.ExecutionResult, error) {
			if rng.Float64() < failRate {
				stats.VenueFailures++
				return nil, errors.New("venue timeout")
			}
			return &domain.ExecutionResult{
				IntentID:      intent.IntentID,
				AgentID:       intent.AgentID,
				Success:       true,
				ExecutedPrice: intent.TargetPrice,
				ExecutedSize:  intent.Size,
				FeesUSD:       intent.AmountUSD * 0.0005,
				ExecutedAt:    time.Now(),
			}, nil
		})
	}
}

// tallyCycle folds one cycle result into the running stats and balance.
func tallyCycle(stats *simStats, result *orchestrator.CycleResult, balance *float64) {
	if result == nil || result.Intent == nil {
		return
	}
	stats.IntentsGenerated++

	switch {
	case result.Skipped == "":
		if result.Result != nil && result.Result.Success {
			stats.IntentsExecuted++
			*balance += result.Result.RealizedPnL - result.Result.FeesUSD
		}
	case result.Skipped == "no-intent":
	default:
		if len(result.Skipped) > 5 && result.Skipped[:5] == "risk:" {
			stats.RiskRejections++
		} else {
			stats.PermissionDenials++
		}
	}
}
