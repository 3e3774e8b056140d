// Package service runs complaint use cases: it applies the lifecycle policy,
// writes through the store and announces every change on the event bus.
package service

import (
	"context"

	"github.com/aavaaz-civic/platform/internal/complaint/domain"
	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/aavaaz-civic/platform/internal/shared/events"
	"github.com/aavaaz-civic/platform/internal/shared/metrics"
	"github.com/aavaaz-civic/platform/internal/shared/types"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// UserDirectory resolves user ids, used to check assignment targets.
type UserDirectory interface {
	FindByID(ctx context.Context, id types.ID) (*identity.User, error)
}

type Service struct {
	repo  domain.Repository
	users UserDirectory
	bus   events.EventBus
	log   zerolog.Logger
}

func New(repo domain.Repository, users UserDirectory, bus events.EventBus, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		users: users,
		bus:   bus,
		log:   log.With().Str("component", "complaint-service").Logger(),
	}
}

// SubmitInput is what a citizen fills in on the complaint form
type SubmitInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Category    domain.Category `json:"category"`
	ImageURL    string          `json:"image_url,omitempty"`
}

// Submit files a complaint owned by actor.
func (s *Service) Submit(ctx context.Context, actor *identity.User, in SubmitInput) (*domain.Complaint, error) {
	if actor == nil {
		return nil, errors.Unauthorized("sign in required")
	}
	if !actor.IsCitizen() {
		return nil, errors.Forbidden("only citizens can file complaints")
	}

	c, err := s.repo.Create(ctx, domain.Draft{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		OwnerID:     actor.ID,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordComplaintSubmitted(string(c.Category))
	s.publish(ctx, actor, domain.EventSubmitted, c, "")
	s.log.Info().
		Str("complaint_id", c.ID.String()).
		Str("owner_id", c.OwnerID.String()).
		Str("category", string(c.Category)).
		Msg("complaint submitted")
	return c, nil
}

// List returns the complaints visible to actor that pass the filter.
func (s *Service) List(ctx context.Context, actor *identity.User, filter domain.ListFilter) ([]domain.Complaint, error) {
	cs, err := s.repo.ListVisible(ctx, actor)
	if err != nil {
		return nil, err
	}
	return filter.Apply(cs), nil
}

// Get returns one complaint if actor may see it.
func (s *Service) Get(ctx context.Context, actor *identity.User, id types.ID) (*domain.Complaint, error) {
	return s.repo.GetVisible(ctx, actor, id)
}

// Assign moves a pending complaint to an agent. Agents pick up work for
// themselves; admins name the agent.
func (s *Service) Assign(ctx context.Context, actor *identity.User, id, agentID types.ID) (*domain.Complaint, error) {
	return s.mutate(ctx, actor, id, domain.EventAssigned, func(c *domain.Complaint) (domain.Patch, error) {
		p, err := domain.AssignPatch(actor, c, agentID)
		if err != nil {
			return p, err
		}
		target, err := s.users.FindByID(ctx, *p.AssignedTo)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				return p, errors.Validation("unknown agent", map[string]string{"agent_id": p.AssignedTo.String()})
			}
			return p, err
		}
		if !target.IsAgent() {
			return p, errors.Validation("assignee is not an agent", map[string]string{"agent_id": target.ID.String()})
		}
		return p, nil
	})
}

// Start marks assigned work as in progress.
func (s *Service) Start(ctx context.Context, actor *identity.User, id types.ID) (*domain.Complaint, error) {
	return s.mutate(ctx, actor, id, domain.EventStarted, func(c *domain.Complaint) (domain.Patch, error) {
		return domain.StartPatch(actor, c)
	})
}

// Resolve closes in-progress work with optional notes and images.
func (s *Service) Resolve(ctx context.Context, actor *identity.User, id types.ID, notes string, images []string) (*domain.Complaint, error) {
	return s.mutate(ctx, actor, id, domain.EventResolved, func(c *domain.Complaint) (domain.Patch, error) {
		return domain.ResolvePatch(actor, c, notes, images)
	})
}

// Reject ends an open complaint without resolution.
func (s *Service) Reject(ctx context.Context, actor *identity.User, id types.ID, notes string) (*domain.Complaint, error) {
	return s.mutate(ctx, actor, id, domain.EventRejected, func(c *domain.Complaint) (domain.Patch, error) {
		return domain.RejectPatch(actor, c, notes)
	})
}

// Rate records the filer's rating and feedback on a resolved complaint.
func (s *Service) Rate(ctx context.Context, actor *identity.User, id types.ID, rating int, feedback string) (*domain.Complaint, error) {
	c, err := s.mutate(ctx, actor, id, domain.EventRated, func(c *domain.Complaint) (domain.Patch, error) {
		return domain.RatingPatch(actor, c, rating, feedback)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordRating(rating)
	return c, nil
}

// Actions lists what actor may do with the complaint.
func (s *Service) Actions(ctx context.Context, actor *identity.User, id types.ID) ([]domain.Action, error) {
	c, err := s.repo.GetVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return domain.Actions(actor, c), nil
}

// mutate loads the complaint, lets build decide the change and writes it
// guarded by the version the decision was made on.
func (s *Service) mutate(
	ctx context.Context,
	actor *identity.User,
	id types.ID,
	eventType string,
	build func(c *domain.Complaint) (domain.Patch, error),
) (*domain.Complaint, error) {
	if actor == nil {
		return nil, errors.Unauthorized("sign in required")
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch, err := build(current)
	metrics.RecordAuthorizationDecision("complaint", eventType, !errors.Is(err, errors.ErrForbidden))
	if err != nil {
		s.log.Info().
			Err(err).
			Str("complaint_id", id.String()).
			Str("actor_id", actor.ID.String()).
			Str("action", eventType).
			Msg("complaint change refused")
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	if updated.Status != current.Status {
		metrics.RecordStatusChange(string(current.Status), string(updated.Status))
	}
	s.publish(ctx, actor, eventType, updated, current.Status)
	s.log.Info().
		Str("complaint_id", id.String()).
		Str("actor_id", actor.ID.String()).
		Str("from", string(current.Status)).
		Str("to", string(updated.Status)).
		Int64("version", updated.Version).
		Msg("complaint updated")
	return updated, nil
}

func (s *Service) publish(ctx context.Context, actor *identity.User, eventType string, c *domain.Complaint, from domain.Status) {
	if s.bus == nil {
		return
	}
	event := events.NewEvent(eventType, domain.EventSource, domain.NewLifecycleEvent(c, from)).
		WithActor(actor.ID, string(actor.Role))
	if reqID := chimw.GetReqID(ctx); reqID != "" {
		event = event.WithCorrelation(reqID)
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
