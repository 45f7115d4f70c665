package resilience

import "errors"

// Terminal errors surfaced by the adapter. Callers distinguish the two to
// apply different backoff behavior: an open circuit means back off entirely,
// exhausted retries mean the single call failed.
var (
	// ErrCircuitOpen is returned when the breaker rejects a call without
	// invoking the wrapped function.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrRetriesExhausted is returned when all retry attempts failed.
	// The last underlying error is wrapped and reachable via errors.Unwrap.
	ErrRetriesExhausted = errors.New("retries exhausted")
)
