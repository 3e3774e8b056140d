package domain

import (
	"context"
	"strings"

	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/aavaaz-civic/platform/internal/shared/types"
)

// Repository defines the complaint store. Reads return copies; every write
// goes through Create or Update.
type Repository interface {
	ListAll(ctx context.Context) ([]Complaint, error)
	ListByOwner(ctx context.Context, ownerID types.ID) ([]Complaint, error)
	ListByAssignee(ctx context.Context, agentID types.ID) ([]Complaint, error)
	Get(ctx context.Context, id types.ID) (*Complaint, error)
	Create(ctx context.Context, d Draft) (*Complaint, error)
	Update(ctx context.Context, id types.ID, p Patch) (*Complaint, error)

	// Scoped reads apply the visibility rules for actor
	ListVisible(ctx context.Context, actor *identity.User) ([]Complaint, error)
	GetVisible(ctx context.Context, actor *identity.User, id types.ID) (*Complaint, error)
}

// ListFilter narrows a listing
type ListFilter struct {
	Status   *Status   `json:"status,omitempty"`
	Category *Category `json:"category,omitempty"`
	Search   string    `json:"search,omitempty"`
}

// Match reports whether c passes the filter
func (f ListFilter) Match(c *Complaint) bool {
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	if f.Category != nil && c.Category != *f.Category {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Description), q) ||
			strings.Contains(strings.ToLower(c.Location), q)
	}
	return true
}

// Apply returns the complaints that pass the filter, in order.
func (f ListFilter) Apply(cs []Complaint) []Complaint {
	out := make([]Complaint, 0, len(cs))
	for i := range cs {
		if f.Match(&cs[i]) {
			out = append(out, cs[i])
		}
	}
	return out
}
