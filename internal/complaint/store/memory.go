// Package store is the authoritative in-memory complaint store.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/aavaaz-civic/platform/internal/complaint/domain"
	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/aavaaz-civic/platform/internal/shared/types"
	"github.com/rs/zerolog"
)

const resourceComplaint = "complaint"

// MemoryStore keeps complaints in insertion order, guarded by an RWMutex.
type MemoryStore struct {
	mu    sync.RWMutex
	items []*domain.Complaint
	index map[types.ID]int

	now func() time.Time
	log zerolog.Logger
}

type Option func(*MemoryStore)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// WithSeed loads initial records. Seeds keep their ids and timestamps.
func WithSeed(cs []domain.Complaint) Option {
	return func(s *MemoryStore) {
		for i := range cs {
			c := cs[i].Clone()
			if _, exists := s.index[c.ID]; exists || c.ID.IsZero() {
				s.log.Warn().Str("complaint_id", c.ID.String()).Msg("skipping seed with duplicate or empty id")
				continue
			}
			if c.Version == 0 {
				c.Version = 1
			}
			s.index[c.ID] = len(s.items)
			s.items = append(s.items, c)
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *MemoryStore) { s.log = log }
}

// New creates a store. Options apply in order, so WithLogger should come
// before WithSeed to capture seed warnings.
func New(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		index: make(map[types.ID]int),
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAll returns copies of every complaint in insertion order.
func (s *MemoryStore) ListAll(ctx context.Context) ([]domain.Complaint, error) {
	return s.filter(func(*domain.Complaint) bool { return true }), nil
}

// ListByOwner returns the complaints filed by ownerID.
func (s *MemoryStore) ListByOwner(ctx context.Context, ownerID types.ID) ([]domain.Complaint, error) {
	return s.filter(func(c *domain.Complaint) bool { return c.OwnerID == ownerID }), nil
}

// ListByAssignee returns the complaints assigned to agentID.
func (s *MemoryStore) ListByAssignee(ctx context.Context, agentID types.ID) ([]domain.Complaint, error) {
	return s.filter(func(c *domain.Complaint) bool { return !agentID.IsZero() && c.AssignedTo == agentID }), nil
}

func (s *MemoryStore) Get(ctx context.Context, id types.ID) (*domain.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, errors.NotFound(resourceComplaint, id.String())
	}
	return s.items[i].Clone(), nil
}

// ListVisible returns the complaints actor is allowed to see.
func (s *MemoryStore) ListVisible(ctx context.Context, actor *identity.User) ([]domain.Complaint, error) {
	if actor == nil {
		return nil, errors.Unauthorized("sign in required")
	}
	switch actor.Role {
	case identity.RoleCitizen:
		return s.ListByOwner(ctx, actor.ID)
	case identity.RoleAgent:
		return s.ListByAssignee(ctx, actor.ID)
	case identity.RoleAdmin:
		return s.ListAll(ctx)
	default:
		return nil, errors.Forbidden("unknown role " + string(actor.Role))
	}
}

// GetVisible returns the complaint when actor is allowed to see it.
func (s *MemoryStore) GetVisible(ctx context.Context, actor *identity.User, id types.ID) (*domain.Complaint, error) {
	if actor == nil {
		return nil, errors.Unauthorized("sign in required")
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.Visible(actor, c) {
		return nil, errors.Forbidden("complaint is not visible to this user")
	}
	return c, nil
}

// Create files a new complaint. It always starts pending and the
// assignee is never set; records in other states come in through WithSeed.
func (s *MemoryStore) Create(ctx context.Context, d domain.Draft) (*domain.Complaint, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := &domain.Complaint{
		ID:          s.nextIDLocked(),
		Title:       d.Title,
		Description: d.Description,
		Location:    d.Location,
		Category:    d.Category,
		Status:      domain.StatusPending,
		ImageURL:    d.ImageURL,
		OwnerID:     d.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	s.index[c.ID] = len(s.items)
	s.items = append(s.items, c)

	s.log.Debug().Str("complaint_id", c.ID.String()).Str("owner_id", c.OwnerID.String()).Msg("complaint created")
	return c.Clone(), nil
}

// Update merges the present fields of p into the complaint. A failed
// update leaves the store unchanged.
func (s *MemoryStore) Update(ctx context.Context, id types.ID, p domain.Patch) (*domain.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return nil, errors.NotFound(resourceComplaint, id.String())
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	current := s.items[i]
	if p.ExpectedVersion != nil && *p.ExpectedVersion != current.Version {
		return nil, errors.Conflict("complaint was modified concurrently")
	}

	next := current.Clone()
	p.Apply(next)
	next.UpdatedAt = s.advanceLocked(current.UpdatedAt)
	next.Version = current.Version + 1
	s.items[i] = next

	s.log.Debug().Str("complaint_id", id.String()).Int64("version", next.Version).Msg("complaint updated")
	return next.Clone(), nil
}

// Len returns the number of stored complaints.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *MemoryStore) filter(keep func(*domain.Complaint) bool) []domain.Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Complaint, 0, len(s.items))
	for _, c := range s.items {
		if keep(c) {
			out = append(out, *c.Clone())
		}
	}
	return out
}

// nextIDLocked derives the id from the store size, skipping ids already
// taken by seeds.
func (s *MemoryStore) nextIDLocked() types.ID {
	for n := len(s.items) + 1; ; n++ {
		id := types.SequenceID(n)
		if _, taken := s.index[id]; !taken {
			return id
		}
	}
}

// advanceLocked returns the clock reading, forced past prev so that
// updatedAt strictly increases.
func (s *MemoryStore) advanceLocked(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

var _ domain.Repository = (*MemoryStore)(nil)
