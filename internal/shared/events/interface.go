package events

import (
	"context"
)

// EventBus defines the interface for event publishing and subscription
type EventBus interface {
	// Publish publishes an event to the bus
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a handler for events matching a pattern
	// ("complaint.*", "complaint.resolved", "*")
	Subscribe(ctx context.Context, pattern string, consumerName string, handler Handler) error

	// Close stops delivery to all subscribers
	Close()

	// Health checks the event bus
	Health() error
}

// Ensure Bus implements EventBus
var _ EventBus = (*Bus)(nil)
