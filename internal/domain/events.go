package domain

import "time"

// Event names emitted by the control plane. Delivery is fire-and-forget,
// at-most-once, no replay.
const (
	EventAgentCreated       = "agent.created"
	EventIntentGenerated    = "intent.generated"
	EventExecutionCompleted = "execution.completed"
	EventExecutionFailed    = "execution.failed"
	EventPositionOpened     = "position.opened"
	EventPositionClosed     = "position.closed"
	EventModeChanged        = "mode.changed"
	EventCriticalEntered    = "critical.entered"
)

// Event is one named occurrence published to the event bus.
type Event struct {
	Name      string
	AgentID   string // empty for non-agent events (mode changes)
	Payload   any
	Timestamp time.Time
}
