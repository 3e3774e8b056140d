package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aavaaz-civic/platform/internal/shared/events"
	"github.com/aavaaz-civic/platform/internal/shared/types"
	"github.com/rs/zerolog"
)

// Subscriber listens to domain events and creates audit entries
type Subscriber struct {
	repo AuditRepository
	bus  events.EventBus
	log  zerolog.Logger
}

// NewSubscriber creates a new audit subscriber
func NewSubscriber(repo AuditRepository, bus events.EventBus, log zerolog.Logger) *Subscriber {
	return &Subscriber{repo: repo, bus: bus, log: log.With().Str("component", "audit").Logger()}
}

// Start subscribes to all audited events
func (s *Subscriber) Start(ctx context.Context) error {
	patterns := []struct {
		pattern      string
		consumerName string
	}{
		{"complaint.*", "audit-complaint-subscriber"},
		{"auth.*", "audit-auth-subscriber"},
	}

	for _, p := range patterns {
		if err := s.bus.Subscribe(ctx, p.pattern, p.consumerName, s.handleEvent); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", p.pattern, err)
		}
	}

	return nil
}

func (s *Subscriber) handleEvent(ctx context.Context, event events.Event) error {
	entry := eventToAuditEntry(event)
	if entry == nil {
		return nil
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	s.log.Debug().Str("action", entry.Action).Int64("sequence", entry.Sequence).Msg("audit entry appended")
	return nil
}

// eventToAuditEntry converts a domain event to an audit entry. Events
// without a resource prefix are not audited.
func eventToAuditEntry(event events.Event) *AuditEntry {
	resourceType, _, ok := strings.Cut(event.Type, ".")
	if !ok || resourceType == "" {
		return nil
	}

	changes := toMap(event.Data)

	// Extract resource ID from event data
	var resourceID *types.ID
	for _, field := range []string{resourceType + "_id", "id"} {
		if idStr, ok := changes[field].(string); ok && idStr != "" {
			id := types.ID(idStr)
			resourceID = &id
			break
		}
	}

	return &AuditEntry{
		ID:            types.NewID(),
		Timestamp:     event.Timestamp.UTC().Truncate(time.Microsecond),
		ActorType:     ParseActorType(event.ActorType),
		ActorID:       event.ActorID,
		Action:        event.Type,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		Changes:       changes,
		CorrelationID: event.CorrelationID,
	}
}

// toMap flattens typed event payloads into the generic form stored in entries.
func toMap(data any) map[string]any {
	if data == nil {
		return nil
	}
	if m, ok := data.(map[string]any); ok {
		return m
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
