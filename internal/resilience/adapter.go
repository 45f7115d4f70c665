package resilience

import (
	"context"
	"errors"
)

// Adapter composes a circuit breaker around a retried call:
// Execute(f) = breaker.Execute(retry(f)). Retries apply only to the
// underlying call; a call rejected because the circuit is open is never
// retried locally — the caller waits out the reset timeout.
type Adapter struct {
	name    string
	breaker *CircuitBreaker
	retry   RetryConfig
}

// AdapterConfig configures a resilient adapter.
type AdapterConfig struct {
	// Name identifies the wrapped dependency in logs and metrics.
	Name    string
	Breaker BreakerConfig
	Retry   RetryConfig
}

// NewAdapter creates a resilient adapter for one outbound dependency.
func NewAdapter(config AdapterConfig) *Adapter {
	return &Adapter{
		name:    config.Name,
		breaker: NewCircuitBreaker(config.Breaker),
		retry:   config.Retry,
	}
}

// Name returns the adapter's dependency name.
func (a *Adapter) Name() string {
	return a.name
}

// State returns the current breaker state.
func (a *Adapter) State() BreakerState {
	return a.breaker.State()
}

// Execute runs f with retry inside the circuit breaker. The breaker counts
// one failure per exhausted retry sequence, not per attempt.
func (a *Adapter) Execute(ctx context.Context, f func(ctx context.Context) error) error {
	return a.breaker.Execute(ctx, func(ctx context.Context) error {
		return Retry(ctx, f, a.retry)
	})
}

// IsCircuitOpen reports whether err is a circuit-open rejection.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsRetriesExhausted reports whether err is a retry exhaustion.
func IsRetriesExhausted(err error) bool {
	return errors.Is(err, ErrRetriesExhausted)
}

// ExecuteWithResult runs f through an adapter and returns its value.
func ExecuteWithResult[T any](ctx context.Context, a *Adapter, f func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := a.Execute(ctx, func(ctx context.Context) error {
		var callErr error
		result, callErr = f(ctx)
		return callErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
