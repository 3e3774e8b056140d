package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aavaaz-civic/platform/internal/shared/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event represents a domain event
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`

	// Actor information
	ActorID   types.ID `json:"actor_id"`
	ActorType string   `json:"actor_type"` // citizen, agent, admin, system

	// Event data
	Data any `json:"data"`
}

// NewEvent creates a new event with auto-generated ID and timestamp
func NewEvent(eventType, source string, data any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// WithActor sets the actor information on the event
func (e Event) WithActor(actorID types.ID, actorType string) Event {
	e.ActorID = actorID
	e.ActorType = actorType
	return e
}

// WithCorrelation sets the correlation ID for request tracing
func (e Event) WithCorrelation(correlationID string) Event {
	e.CorrelationID = correlationID
	return e
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

type subscription struct {
	pattern  string
	consumer string
	handler  Handler
}

// Bus is an in-process event bus. Publish delivers synchronously to every
// matching subscriber in registration order; a failing handler is logged and
// does not stop delivery to the others.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	closed bool
	log    zerolog.Logger
}

// NewBus creates a new in-process event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{log: log.With().Str("component", "event-bus").Logger()}
}

// Publish publishes an event to the bus
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("event bus is closed")
	}
	matched := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if matchPattern(s.pattern, event.Type) {
			matched = append(matched, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range matched {
		if err := s.handler(ctx, event); err != nil {
			b.log.Error().
				Err(err).
				Str("consumer", s.consumer).
				Str("event_type", event.Type).
				Str("event_id", event.ID).
				Msg("event handler failed")
		}
	}

	return nil
}

// Subscribe registers handler for events whose type matches pattern
func (b *Bus) Subscribe(ctx context.Context, pattern string, consumerName string, handler Handler) error {
	if pattern == "" {
		return fmt.Errorf("pattern is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("event bus is closed")
	}
	b.subs = append(b.subs, subscription{pattern: pattern, consumer: consumerName, handler: handler})

	b.log.Debug().Str("pattern", pattern).Str("consumer", consumerName).Msg("subscribed")
	return nil
}

// Close stops delivery to all subscribers
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = nil
}

// Health reports an error once the bus has been closed
func (b *Bus) Health() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("event bus is closed")
	}
	return nil
}

// matchPattern matches "*" (everything), "prefix.*" (any type under prefix)
// or an exact event type.
func matchPattern(pattern, eventType string) bool {
	if pattern == "*" || pattern == ">" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(eventType, prefix+".")
	}
	return pattern == eventType
}
