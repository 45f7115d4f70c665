// Package resilience wraps outbound venue and risk-service calls with a
// circuit breaker and bounded retry. Every external call the control plane
// makes goes through an Adapter from this package.
package resilience

import (
	"context"
	"sync"
	"time"
)

// BreakerState is the circuit breaker state.
type BreakerState int

// Breaker states
const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

// String returns the state name for logs and metrics.
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures circuit breaker behavior.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit. Default: 5.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before allowing
	// half-open trial calls. Default: 30s.
	ResetTimeout time.Duration

	// SuccessThreshold is the number of consecutive half-open successes
	// required to close the circuit. Default: 3.
	SuccessThreshold int

	// OnStateChange is an optional hook invoked after every state change.
	OnStateChange func(from, to BreakerState)
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		SuccessThreshold: 3,
	}
}

// validate sets defaults for zero-valued fields.
func (c *BreakerConfig) validate() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 3
	}
}

// CircuitBreaker fast-fails calls to a dependency that keeps failing.
// closed → open after FailureThreshold consecutive failures; open → half-open
// after ResetTimeout; half-open → closed after SuccessThreshold consecutive
// successes, or back to open on any failure.
type CircuitBreaker struct {
	config BreakerConfig

	mu        sync.Mutex
	state     BreakerState
	failures  int       // consecutive failures in closed state
	successes int       // consecutive successes in half-open state
	openedAt  time.Time // when the circuit last opened
	now       func() time.Time
}

// NewCircuitBreaker creates a circuit breaker in the closed state.
func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	config.validate()
	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// State returns the current breaker state, accounting for reset timeout expiry.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// currentState returns the effective state, transitioning open → half-open
// when the reset timeout has elapsed. Caller must hold b.mu.
func (b *CircuitBreaker) currentState() BreakerState {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.config.ResetTimeout {
		b.transition(StateHalfOpen)
	}
	return b.state
}

// Execute runs f through the breaker. When the circuit is open, f is not
// invoked and ErrCircuitOpen is returned immediately.
func (b *CircuitBreaker) Execute(ctx context.Context, f func(ctx context.Context) error) error {
	b.mu.Lock()
	state := b.currentState()
	if state == StateOpen {
		b.mu.Unlock()
		return ErrCircuitOpen
	}
	b.mu.Unlock()

	err := f(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

// onSuccess records a successful call. Caller must hold b.mu.
func (b *CircuitBreaker) onSuccess() {
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transition(StateClosed)
		}
	}
}

// onFailure records a failed call. Caller must hold b.mu.
func (b *CircuitBreaker) onFailure() {
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.openedAt = b.now()
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		// Any half-open failure reopens the circuit and restarts the timeout.
		b.openedAt = b.now()
		b.transition(StateOpen)
	}
}

// transition changes state and resets counters. Caller must hold b.mu.
func (b *CircuitBreaker) transition(to BreakerState) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.failures = 0
	b.successes = 0
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(from, to)
	}
}
