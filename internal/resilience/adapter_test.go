package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAdapter_RetriesInsideBreaker(t *testing.T) {
	a := NewAdapter(AdapterConfig{
		Name:    "venue",
		Breaker: BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute},
		Retry:   fastRetryConfig(3),
	})
	ctx := context.Background()

	calls := 0
	err := a.Execute(ctx, func(_ context.Context) error {
		calls++
		if calls < 3 {
			return errVenueDown
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	// The retry sequence succeeded, so the breaker saw one success
	if a.State() != StateClosed {
		t.Errorf("Expected closed breaker, got %s", a.State())
	}
}

func TestAdapter_BreakerCountsExhaustedSequences(t *testing.T) {
	a := NewAdapter(AdapterConfig{
		Name:    "venue",
		Breaker: BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute},
		Retry:   fastRetryConfig(3),
	})
	ctx := context.Background()

	calls := 0
	count := func(_ context.Context) error {
		calls++
		return errVenueDown
	}

	// Two exhausted retry sequences open the breaker
	if err := a.Execute(ctx, count); !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("Expected ErrRetriesExhausted, got %v", err)
	}
	if err := a.Execute(ctx, count); !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("Expected ErrRetriesExhausted, got %v", err)
	}
	if calls != 6 {
		t.Errorf("Expected 6 underlying calls (2 sequences x 3 attempts), got %d", calls)
	}
	if a.State() != StateOpen {
		t.Fatalf("Expected open breaker, got %s", a.State())
	}

	// Open circuit: rejected immediately, no retries, no underlying calls
	err := a.Execute(ctx, count)
	if !IsCircuitOpen(err) {
		t.Errorf("Expected circuit-open rejection, got %v", err)
	}
	if calls != 6 {
		t.Errorf("Open circuit must not invoke the call, got %d calls", calls)
	}
}

func TestAdapter_ErrorClassification(t *testing.T) {
	if !IsCircuitOpen(ErrCircuitOpen) {
		t.Error("IsCircuitOpen(ErrCircuitOpen) = false")
	}
	if IsCircuitOpen(ErrRetriesExhausted) {
		t.Error("IsCircuitOpen(ErrRetriesExhausted) = true")
	}
	wrapped := errors.Join(ErrRetriesExhausted, errVenueDown)
	if !IsRetriesExhausted(wrapped) {
		t.Error("IsRetriesExhausted should see through wrapping")
	}
}

func TestExecuteWithResult(t *testing.T) {
	a := NewAdapter(AdapterConfig{
		Name:  "risk-service",
		Retry: fastRetryConfig(2),
	})
	ctx := context.Background()

	calls := 0
	got, err := ExecuteWithResult(ctx, a, func(_ context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errVenueDown
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}

	_, err = ExecuteWithResult(ctx, a, func(_ context.Context) (int, error) {
		return 0, errVenueDown
	})
	if !IsRetriesExhausted(err) {
		t.Errorf("Expected retries exhausted, got %v", err)
	}
}
