// Package main runs the trading-agent control plane as one service:
// - HTTP API for strategies, agents, signal batches, and risk status
// - Permission expiry sweeper (scheduled)
// - Optional remote risk service feed (HTTP poll + WebSocket stream)
// - Prometheus metrics and health endpoints
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/events"
	"agent-control-plane/internal/observability"
	"agent-control-plane/internal/orchestrator"
	"agent-control-plane/internal/permission"
	"agent-control-plane/internal/resilience"
	"agent-control-plane/internal/risk"
	"agent-control-plane/internal/riskfeed"
	"agent-control-plane/internal/storage"
	chstore "agent-control-plane/internal/storage/clickhouse"
	"agent-control-plane/internal/storage/memory"
	"agent-control-plane/internal/storage/migrations"
	pgstore "agent-control-plane/internal/storage/postgres"
	"agent-control-plane/internal/strategy"
)

// Server holds all components of the control plane.
type Server struct {
	orch     *orchestrator.Orchestrator
	registry *strategy.Registry
	perms    *permission.Manager
	riskCtrl *risk.Controller
	bus      *events.Bus
	feed     *riskfeed.Client

	cleanupInterval time.Duration
	logger          *log.Logger
	started         time.Time

	mu           sync.Mutex
	cycleCount   int
	lastCycleRun time.Time
	liveAgents   int
}

// allStores holds all storage implementations.
type allStores struct {
	agentStore      storage.AgentStore
	permissionStore storage.PermissionStore
	usageStore      storage.UsageStore
	positionStore   storage.PositionStore
	transitionStore storage.TransitionStore
	executionStore  storage.ExecutionStore
}

func main() {
	loadEnvFile()

	// Parse flags (env vars as defaults)
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	httpAddr := flag.String("http-addr", ":8080", "HTTP API address")
	wallet := flag.String("wallet", os.Getenv("WALLET_ADDRESS"), "Portfolio wallet address")
	startBalance := flag.Float64("start-balance", 10000, "Portfolio start balance in USD")
	riskEndpoint := flag.String("risk-endpoint", os.Getenv("RISK_ENDPOINT"), "Remote risk service HTTP endpoint (optional)")
	riskWSEndpoint := flag.String("risk-ws-endpoint", os.Getenv("RISK_WS_ENDPOINT"), "Remote risk service WebSocket endpoint (optional)")
	validateAddrs := flag.Bool("validate-wallets", false, "Reject permissions whose wallet is not a valid ed25519 address")
	cleanupInterval := flag.Duration("cleanup-interval", 1*time.Minute, "Permission expiry sweep interval")
	verbose := flag.Bool("verbose", false, "Verbose pipeline logging")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *wallet == "" {
		logger.Fatal("--wallet is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	bus := events.NewBus()

	perms := permission.NewManager(permission.Options{
		PermissionStore:         stores.permissionStore,
		UsageStore:              stores.usageStore,
		ValidateWalletAddresses: *validateAddrs,
		Logger:                  log.New(os.Stdout, "[permission] ", log.LstdFlags),
	})

	riskOpts := risk.Options{
		WalletAddress: *wallet,
		StartBalance:  *startBalance,
		Transitions:   stores.transitionStore,
		Events:        bus,
		Logger:        log.New(os.Stdout, "[risk] ", log.LstdFlags),
	}
	var feed *riskfeed.Client
	if *riskEndpoint != "" {
		feed = riskfeed.NewClient(*riskEndpoint, *wallet)
		riskOpts.Remote = feed
		riskOpts.RemoteAdapter = resilience.AdapterConfig{Name: "risk-service"}
	}
	riskCtrl := risk.NewController(riskOpts)

	registry := strategy.NewRegistry()

	orch := orchestrator.New(orchestrator.Options{
		AgentStore:     stores.agentStore,
		PositionStore:  stores.positionStore,
		ExecutionStore: stores.executionStore,
		Registry:       registry,
		Permissions:    perms,
		Risk:           riskCtrl,
		Events:         bus,
		Execute:        paperExecutor(),
		Logger:         log.New(os.Stdout, "[orchestrator] ", log.LstdFlags),
		Verbose:        *verbose,
	})

	server := &Server{
		orch:            orch,
		registry:        registry,
		perms:           perms,
		riskCtrl:        riskCtrl,
		bus:             bus,
		feed:            feed,
		cleanupInterval: *cleanupInterval,
		logger:          logger,
		started:         time.Now(),
	}

	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	go server.startHTTPServer(*httpAddr)

	if *riskWSEndpoint != "" {
		go server.runRiskStream(ctx, *riskWSEndpoint, *wallet)
	}

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			agentStore:      memory.NewAgentStore(),
			permissionStore: memory.NewPermissionStore(),
			usageStore:      memory.NewUsageStore(),
			positionStore:   memory.NewPositionStore(),
			transitionStore: memory.NewTransitionStore(),
			executionStore:  memory.NewExecutionStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	stores := &allStores{
		// PostgreSQL stores (control-plane state)
		agentStore:      pgstore.NewAgentStore(pool),
		permissionStore: pgstore.NewPermissionStore(pool),
		usageStore:      pgstore.NewUsageStore(pool),

		// In-memory (open positions are ephemeral working state)
		positionStore: memory.NewPositionStore(),

		// ClickHouse stores (append-only audit trails)
		transitionStore: chstore.NewTransitionStore(chConn),
		executionStore:  chstore.NewExecutionStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// paperExecutor fills every intent at its target price. It stands in for a
// venue connector; the orchestrator treats it like any other ExecFunc.
func paperExecutor() orchestrator.ExecFunc {
	adapter := resilience.NewAdapter(resilience.AdapterConfig{
		Name: "paper-venue",
		Retry: resilience.RetryConfig{
			OnRetry: func(attempt int, err error, nextDelay time.Duration) {
				observability.RecordRetryAttempt("paper-venue")
			},
		},
	})

	return func(ctx context.Context, intent *domain.TradeIntent) (*domain.ExecutionResult, error) {
		start := time.Now()
		result, err := resilience.ExecuteWithResult(ctx, adapter, func(ctx context.Context) (*domain.ExecutionResult, error) {
			return &domain.ExecutionResult{
				IntentID:      intent.IntentID,
				AgentID:       intent.AgentID,
				Success:       true,
				ExecutedPrice: intent.TargetPrice,
				ExecutedSize:  intent.Size,
				FeesUSD:       intent.AmountUSD * 0.0005, // 5 bps taker fee
				ExecutedAt:    time.Now(),
			}, nil
		})
		observability.RecordVenueCall("paper", time.Since(start).Seconds(), err)
		observability.UpdateBreakerState(adapter.Name(), adapter.State())
		return result, err
	}
}

// Run starts the background loops and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting control plane...")

	go s.runEventLog(ctx)
	go s.runCleanupSweeper(ctx)

	<-ctx.Done()
	return ctx.Err()
}

// runCleanupSweeper deactivates expired permissions on a schedule.
func (s *Server) runCleanupSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleaned, err := s.perms.CleanupExpired(ctx)
			if err != nil {
				s.logger.Printf("Permission cleanup error: %v", err)
				continue
			}
			if cleaned > 0 {
				s.logger.Printf("Deactivated %d expired permissions", cleaned)
			}
		}
	}
}

// runEventLog consumes bus events, logs them, and feeds the metrics.
func (s *Server) runEventLog(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-sub.C():
			s.logger.Printf("event %s agent=%s", event.Name, event.AgentID)

			switch event.Name {
			case domain.EventAgentCreated:
				observability.RecordAgentCreated()
			case domain.EventIntentGenerated:
				if intent, ok := event.Payload.(*domain.TradeIntent); ok {
					observability.RecordIntentGenerated(intent.Side)
				}
			case domain.EventExecutionCompleted:
				observability.RecordIntentExecuted(true)
			case domain.EventExecutionFailed:
				observability.RecordIntentExecuted(false)
			case domain.EventModeChanged:
				observability.RecordModeTransition()
				observability.UpdateSurvivalMode(s.riskCtrl.Status())
			}

			observability.UpdateEventsDropped(s.bus.Dropped())
		}
	}
}

// runRiskStream feeds pushed survival statuses into the local controller.
func (s *Server) runRiskStream(ctx context.Context, endpoint, wallet string) {
	stream, err := riskfeed.NewStream(ctx, endpoint, wallet, nil)
	if err != nil {
		s.logger.Printf("Risk stream unavailable: %v", err)
		return
	}
	defer stream.Close()

	s.logger.Printf("Subscribed to risk stream at %s", endpoint)

	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-stream.Statuses():
			if !ok {
				return
			}
			if _, err := s.riskCtrl.RecomputeMode(ctx, status.CurrentBalance); err != nil {
				s.logger.Printf("Recompute mode from stream: %v", err)
			}
		}
	}
}

// startHTTPServer starts the HTTP server for the API, health, and metrics.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /status", s.handleStatus)

	mux.HandleFunc("POST /v1/strategies", s.handleCreateStrategy)
	mux.HandleFunc("GET /v1/strategies", s.handleListStrategies)
	mux.HandleFunc("DELETE /v1/strategies/{id}", s.handleDeleteStrategy)

	mux.HandleFunc("POST /v1/agents", s.handleCreateAgent)
	mux.HandleFunc("GET /v1/agents", s.handleListAgents)
	mux.HandleFunc("GET /v1/agents/{id}", s.handleGetAgent)
	mux.HandleFunc("POST /v1/agents/{id}/pause", s.handlePauseAgent)
	mux.HandleFunc("POST /v1/agents/{id}/resume", s.handleResumeAgent)
	mux.HandleFunc("POST /v1/agents/{id}/kill", s.handleKillAgent)
	mux.HandleFunc("POST /v1/agents/{id}/signals", s.handleSignals)
	mux.HandleFunc("GET /v1/agents/{id}/positions", s.handlePositions)

	mux.HandleFunc("GET /v1/risk/status", s.handleRiskStatus)
	mux.HandleFunc("GET /v1/risk/history", s.handleRiskHistory)
	mux.HandleFunc("POST /v1/risk/balance", s.handleRiskBalance)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Fatalf("HTTP server error: %v", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cycles := s.cycleCount
	lastCycle := s.lastCycleRun
	s.mu.Unlock()

	status := s.riskCtrl.Status()

	writeJSON(w, http.StatusOK, map[string]any{
		"uptime":         time.Since(s.started).String(),
		"cycles":         cycles,
		"last_cycle":     lastCycle,
		"survival_mode":  status.Mode,
		"pnl_percent":    status.PnLPercent,
		"events_dropped": s.bus.Dropped(),
	})
}

type strategyRequest struct {
	StrategyID     string   `json:"strategy_id"`
	OwnerID        string   `json:"owner_id"`
	Name           string   `json:"name"`
	StrategyType   string   `json:"strategy_type"`
	Market         string   `json:"market"`
	EntryChangePct *float64 `json:"entry_change_pct,omitempty"`
	ReferencePrice *float64 `json:"reference_price,omitempty"`
	BandPct        *float64 `json:"band_pct,omitempty"`
	BaseSizeUSD    *float64 `json:"base_size_usd,omitempty"`
	Leverage       float64  `json:"leverage,omitempty"`
}

func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	var req strategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	cfg := domain.StrategyConfig{
		StrategyID:     req.StrategyID,
		OwnerID:        req.OwnerID,
		Name:           req.Name,
		StrategyType:   domain.StrategyType(req.StrategyType),
		Market:         req.Market,
		EntryChangePct: req.EntryChangePct,
		ReferencePrice: req.ReferencePrice,
		BandPct:        req.BandPct,
		BaseSizeUSD:    req.BaseSizeUSD,
		Leverage:       req.Leverage,
	}
	if err := s.registry.Register(cfg); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	stored, err := s.registry.GetConfig(cfg.StrategyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	writeJSON(w, http.StatusOK, s.registry.ListByOwner(owner))
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type agentRequest struct {
	UserID        string             `json:"user_id"`
	Name          string             `json:"name"`
	StrategyID    string             `json:"strategy_id"`
	WalletAddress string             `json:"wallet_address"`
	Config        domain.AgentConfig `json:"config"`

	AllowedActions []string                `json:"allowed_actions"`
	Limits         domain.PermissionLimits `json:"limits"`
	PermissionTTL  string                  `json:"permission_ttl"` // Go duration, e.g. "24h"
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	ttl := 24 * time.Hour
	if req.PermissionTTL != "" {
		parsed, err := time.ParseDuration(req.PermissionTTL)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("parse permission_ttl: %w", err))
			return
		}
		ttl = parsed
	}

	actions := make([]domain.PermissionAction, len(req.AllowedActions))
	for i, a := range req.AllowedActions {
		actions[i] = domain.PermissionAction(a)
	}

	agent, err := s.orch.CreateAgent(r.Context(), orchestrator.AgentSpec{
		UserID:         req.UserID,
		Name:           req.Name,
		StrategyID:     req.StrategyID,
		WalletAddress:  req.WalletAddress,
		Config:         req.Config,
		AllowedActions: actions,
		Limits:         req.Limits,
		PermissionTTL:  ttl,
	})
	if err != nil {
		if errors.Is(err, orchestrator.ErrStrategyNotFound) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.mu.Lock()
	s.liveAgents++
	observability.UpdateActiveAgents(s.liveAgents)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, agent)
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.orch.ListAgentsByUser(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := s.orch.GetAgent(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (s *Server) handlePauseAgent(w http.ResponseWriter, r *http.Request) {
	if !s.orch.PauseAgent(r.Context(), r.PathValue("id")) {
		writeError(w, http.StatusConflict, errors.New("agent not pausable"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResumeAgent(w http.ResponseWriter, r *http.Request) {
	if !s.orch.ResumeAgent(r.Context(), r.PathValue("id")) {
		writeError(w, http.StatusConflict, errors.New("agent not resumable"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleKillAgent(w http.ResponseWriter, r *http.Request) {
	result := s.orch.KillAgent(r.Context(), r.PathValue("id"))
	if result.Success {
		observability.RecordAgentKilled()
		s.mu.Lock()
		if s.liveAgents > 0 {
			s.liveAgents--
		}
		observability.UpdateActiveAgents(s.liveAgents)
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, result)
}

type signalRequest struct {
	Signals []struct {
		Kind      string  `json:"kind"`
		Market    string  `json:"market"`
		Value     float64 `json:"value"`
		Change24h float64 `json:"change_24h"`
		Volume    float64 `json:"volume"`
	} `json:"signals"`
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	var req signalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	signals := make([]domain.Signal, len(req.Signals))
	for i, sig := range req.Signals {
		signals[i] = domain.Signal{
			Kind:      domain.SignalKind(sig.Kind),
			Market:    sig.Market,
			Value:     sig.Value,
			Change24h: sig.Change24h,
			Volume:    sig.Volume,
			Timestamp: time.Now(),
		}
	}

	result, err := s.orch.RunCycle(r.Context(), r.PathValue("id"), signals)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.mu.Lock()
	s.cycleCount++
	s.lastCycleRun = time.Now()
	s.mu.Unlock()

	if result != nil {
		if strings.HasPrefix(result.Skipped, "permission:") {
			observability.RecordPermissionDenial(result.Permission.Reason)
		}
		if strings.HasPrefix(result.Skipped, "risk:") {
			observability.RecordRiskRejection()
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.orch.GetPositions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleRiskStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.riskCtrl.GetRemoteStatus(r.Context()))
}

func (s *Server) handleRiskHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.riskCtrl.History(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

type balanceRequest struct {
	Balance float64 `json:"balance"`
}

func (s *Server) handleRiskBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	status, err := s.riskCtrl.RecomputeMode(r.Context(), req.Balance)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	observability.UpdateSurvivalMode(status)

	// Mirror the observation to the remote risk service when one is
	// configured; local state is authoritative either way.
	if s.feed != nil {
		go func(balance float64) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.feed.PushBalance(ctx, balance); err != nil {
				s.logger.Printf("push balance to risk service: %v", err)
			}
		}(req.Balance)
	}

	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[server] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
