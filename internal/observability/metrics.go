// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/resilience"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Agent metrics
	AgentsCreated prometheus.Counter
	AgentsKilled  prometheus.Counter
	ActiveAgents  prometheus.Gauge

	// Intent pipeline metrics
	IntentsGenerated  *prometheus.CounterVec
	IntentsExecuted   *prometheus.CounterVec
	PermissionDenials *prometheus.CounterVec
	RiskRejections    prometheus.Counter

	// Risk metrics
	SurvivalMode    *prometheus.GaugeVec
	ModeTransitions prometheus.Counter
	PortfolioPnLPct prometheus.Gauge

	// Resilience metrics
	BreakerState   *prometheus.GaugeVec
	RetrySequences *prometheus.CounterVec

	// Venue metrics
	VenueCallLatency *prometheus.HistogramVec
	VenueCallErrors  *prometheus.CounterVec

	// Event bus metrics
	EventsDropped prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "agent_control_plane"
	}

	return &Metrics{
		AgentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agents",
			Name:      "created_total",
			Help:      "Total number of agents registered",
		}),
		AgentsKilled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agents",
			Name:      "killed_total",
			Help:      "Total number of agents killed",
		}),
		ActiveAgents: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "agents",
			Name:      "active",
			Help:      "Number of agents currently active",
		}),

		IntentsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "intents_generated_total",
			Help:      "Total number of trade intents produced by strategies",
		}, []string{"side"}),
		IntentsExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "intents_executed_total",
			Help:      "Total number of intents handed to a venue by outcome",
		}, []string{"outcome"}),
		PermissionDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "permission_denials_total",
			Help:      "Total number of permission denials by reason",
		}, []string{"reason"}),
		RiskRejections: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "risk_rejections_total",
			Help:      "Total number of intents rejected by survival-mode constraints",
		}),

		SurvivalMode: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "survival_mode",
			Help:      "Current survival mode (1 for the active mode, 0 otherwise)",
		}, []string{"mode"}),
		ModeTransitions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "mode_transitions_total",
			Help:      "Total number of survival-mode transitions",
		}),
		PortfolioPnLPct: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "portfolio_pnl_percent",
			Help:      "Current portfolio P&L percent against the start balance",
		}),

		BreakerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per dependency (0=closed, 1=open, 2=half-open)",
		}, []string{"dependency"}),
		RetrySequences: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "retry_attempts_total",
			Help:      "Total number of retry attempts per dependency",
		}, []string{"dependency"}),

		VenueCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "call_duration_seconds",
			Help:      "Venue call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"venue"}),
		VenueCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "call_errors_total",
			Help:      "Total number of failed venue calls",
		}, []string{"venue"}),

		EventsDropped: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dropped",
			Help:      "Events dropped on full subscriber buffers since startup",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAgentCreated increments the agents created counter.
func RecordAgentCreated() {
	DefaultMetrics.AgentsCreated.Inc()
}

// RecordAgentKilled increments the agents killed counter.
func RecordAgentKilled() {
	DefaultMetrics.AgentsKilled.Inc()
}

// UpdateActiveAgents sets the active agent gauge.
func UpdateActiveAgents(n int) {
	DefaultMetrics.ActiveAgents.Set(float64(n))
}

// RecordIntentGenerated counts a produced intent by side.
func RecordIntentGenerated(side domain.IntentSide) {
	DefaultMetrics.IntentsGenerated.WithLabelValues(string(side)).Inc()
}

// RecordIntentExecuted counts an executed intent by outcome.
func RecordIntentExecuted(success bool) {
	outcome := "failed"
	if success {
		outcome = "completed"
	}
	DefaultMetrics.IntentsExecuted.WithLabelValues(outcome).Inc()
}

// RecordPermissionDenial counts a denial by reason code.
func RecordPermissionDenial(reason string) {
	DefaultMetrics.PermissionDenials.WithLabelValues(reason).Inc()
}

// RecordRiskRejection counts a survival-mode rejection.
func RecordRiskRejection() {
	DefaultMetrics.RiskRejections.Inc()
}

// UpdateSurvivalMode sets the one-hot survival mode gauge and P&L.
func UpdateSurvivalMode(status domain.SurvivalStatus) {
	modes := []domain.SurvivalMode{
		domain.ModeGrowth, domain.ModeNormal, domain.ModeDefensive,
		domain.ModeCritical, domain.ModeHibernation,
	}
	for _, m := range modes {
		v := 0.0
		if m == status.Mode {
			v = 1
		}
		DefaultMetrics.SurvivalMode.WithLabelValues(string(m)).Set(v)
	}
	DefaultMetrics.PortfolioPnLPct.Set(status.PnLPercent)
}

// RecordModeTransition counts a survival-mode transition.
func RecordModeTransition() {
	DefaultMetrics.ModeTransitions.Inc()
}

// UpdateBreakerState sets the breaker state gauge for a dependency.
func UpdateBreakerState(dependency string, state resilience.BreakerState) {
	DefaultMetrics.BreakerState.WithLabelValues(dependency).Set(float64(state))
}

// RecordRetryAttempt counts one retry attempt for a dependency.
func RecordRetryAttempt(dependency string) {
	DefaultMetrics.RetrySequences.WithLabelValues(dependency).Inc()
}

// RecordVenueCall records a venue call's latency and outcome.
func RecordVenueCall(venue string, seconds float64, err error) {
	DefaultMetrics.VenueCallLatency.WithLabelValues(venue).Observe(seconds)
	if err != nil {
		DefaultMetrics.VenueCallErrors.WithLabelValues(venue).Inc()
	}
}

// UpdateEventsDropped sets the dropped-events gauge to the bus total.
func UpdateEventsDropped(total uint64) {
	DefaultMetrics.EventsDropped.Set(float64(total))
}
