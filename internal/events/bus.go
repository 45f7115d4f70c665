// Package events is the fire-and-forget notification channel between the
// control plane and observers. Delivery is at-most-once with no replay: a
// subscriber whose buffer is full loses the event rather than blocking the
// publishing component.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"agent-control-plane/internal/domain"
)

// DefaultBufferSize is the per-subscriber channel buffer.
const DefaultBufferSize = 64

// Subscription is one registered observer.
type Subscription struct {
	id    uint64
	names map[string]bool // empty = all events
	ch    chan domain.Event
}

// C returns the subscriber's receive channel.
func (s *Subscription) C() <-chan domain.Event {
	return s.ch
}

// Bus is an in-process publish/subscribe event bus.
type Bus struct {
	mu      sync.RWMutex
	nextID  uint64
	subs    map[uint64]*Subscription
	bufSize int
	dropped atomic.Uint64 // events lost to full subscriber buffers
}

// NewBus creates a bus with the default per-subscriber buffer.
func NewBus() *Bus {
	return NewBusWithBuffer(DefaultBufferSize)
}

// NewBusWithBuffer creates a bus with a custom per-subscriber buffer size.
func NewBusWithBuffer(bufSize int) *Bus {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Bus{
		subs:    make(map[uint64]*Subscription),
		bufSize: bufSize,
	}
}

// Subscribe registers an observer for the named events.
// With no names, the subscriber receives every event.
func (b *Bus) Subscribe(names ...string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:    b.nextID,
		names: make(map[string]bool, len(names)),
		ch:    make(chan domain.Event, b.bufSize),
	}
	for _, n := range names {
		sub.names[n] = true
	}
	b.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes an observer and closes its channel.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subs[sub.id]; !exists {
		return
	}
	delete(b.subs, sub.id)
	close(sub.ch)
}

// Publish delivers an event to all matching subscribers without blocking.
// Events to full subscriber buffers are dropped.
func (b *Bus) Publish(name, agentID string, payload any) {
	event := domain.Event{
		Name:      name,
		AgentID:   agentID,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if len(sub.names) > 0 && !sub.names[name] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns the number of events lost to full subscriber buffers.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}
