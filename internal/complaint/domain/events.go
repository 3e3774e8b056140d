package domain

import (
	"time"

	"github.com/aavaaz-civic/platform/internal/shared/types"
)

// Event types published on the bus for complaint lifecycle changes
const (
	EventSubmitted = "complaint.submitted"
	EventAssigned  = "complaint.assigned"
	EventStarted   = "complaint.started"
	EventResolved  = "complaint.resolved"
	EventRejected  = "complaint.rejected"
	EventRated     = "complaint.rated"
)

// EventSource names the publisher of complaint events
const EventSource = "complaint-service"

// LifecycleEvent is the payload of every complaint event
type LifecycleEvent struct {
	ComplaintID types.ID  `json:"complaint_id"`
	OwnerID     types.ID  `json:"owner_id"`
	AssignedTo  types.ID  `json:"assigned_to,omitempty"`
	From        Status    `json:"from,omitempty"`
	To          Status    `json:"to"`
	Category    Category  `json:"category"`
	Rating      *int      `json:"rating,omitempty"`
	Version     int64     `json:"version"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewLifecycleEvent describes c after a change from the given status.
func NewLifecycleEvent(c *Complaint, from Status) LifecycleEvent {
	return LifecycleEvent{
		ComplaintID: c.ID,
		OwnerID:     c.OwnerID,
		AssignedTo:  c.AssignedTo,
		From:        from,
		To:          c.Status,
		Category:    c.Category,
		Rating:      c.Rating,
		Version:     c.Version,
		OccurredAt:  c.UpdatedAt,
	}
}
