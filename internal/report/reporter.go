// Package report derives dashboard figures from the current complaint set.
package report

import (
	"context"
	"time"

	"github.com/aavaaz-civic/platform/internal/complaint/domain"
	"github.com/aavaaz-civic/platform/internal/shared/types"
)

// DefaultTrendPeriods is the trend window used when none is requested.
const DefaultTrendPeriods = 6

// Source is the read side of the complaint store
type Source interface {
	ListAll(ctx context.Context) ([]domain.Complaint, error)
}

// Statistics counts complaints once per status and once per category.
type Statistics struct {
	Total         int                     `json:"total"`
	ByStatus      map[domain.Status]int   `json:"by_status"`
	ByCategory    map[domain.Category]int `json:"by_category"`
	Rated         int                     `json:"rated"`
	AverageRating float64                 `json:"average_rating"`
}

// TrendPoint is the number of complaints filed in one calendar month
type TrendPoint struct {
	Label string    `json:"label"`
	Month time.Time `json:"month"`
	Count int       `json:"count"`
}

// AgentSummary is the workload of one agent
type AgentSummary struct {
	Total      int `json:"total"`
	Assigned   int `json:"assigned"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
}

// CitizenSummary is the progress of one citizen's complaints
type CitizenSummary struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Resolved int `json:"resolved"`
}

type Reporter struct {
	src Source
	now func() time.Time
}

type Option func(*Reporter)

func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

func NewReporter(src Source, opts ...Option) *Reporter {
	r := &Reporter{src: src, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Statistics counts the current complaint set in a single pass.
func (r *Reporter) Statistics(ctx context.Context) (*Statistics, error) {
	cs, err := r.src.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return Compute(cs), nil
}

// Compute builds statistics over cs. Every status and category key is
// present, with zero counts where nothing matched.
func Compute(cs []domain.Complaint) *Statistics {
	s := &Statistics{
		Total:      len(cs),
		ByStatus:   make(map[domain.Status]int, len(domain.Statuses())),
		ByCategory: make(map[domain.Category]int, len(domain.Categories())),
	}
	for _, st := range domain.Statuses() {
		s.ByStatus[st] = 0
	}
	for _, cat := range domain.Categories() {
		s.ByCategory[cat] = 0
	}

	ratingSum := 0
	for i := range cs {
		s.ByStatus[cs[i].Status]++
		s.ByCategory[cs[i].Category]++
		if cs[i].Rating != nil {
			s.Rated++
			ratingSum += *cs[i].Rating
		}
	}
	if s.Rated > 0 {
		s.AverageRating = float64(ratingSum) / float64(s.Rated)
	}
	return s
}

// MonthlyTrend counts complaints per calendar month of creation for the
// periods months ending with the current one, oldest first.
func (r *Reporter) MonthlyTrend(ctx context.Context, periods int) ([]TrendPoint, error) {
	cs, err := r.src.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return BucketByMonth(cs, periods, r.now()), nil
}

// BucketByMonth buckets CreatedAt (UTC) into the periods calendar months
// ending with now's month. Complaints outside the window are ignored.
// periods <= 0 means DefaultTrendPeriods.
func BucketByMonth(cs []domain.Complaint, periods int, now time.Time) []TrendPoint {
	if periods <= 0 {
		periods = DefaultTrendPeriods
	}
	now = now.UTC()
	last := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	first := last.AddDate(0, -(periods - 1), 0)

	points := make([]TrendPoint, periods)
	for i := range points {
		m := first.AddDate(0, i, 0)
		points[i] = TrendPoint{Label: m.Format("Jan 2006"), Month: m}
	}

	for i := range cs {
		t := cs[i].CreatedAt.UTC()
		idx := (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
		if idx >= 0 && idx < periods {
			points[idx].Count++
		}
	}
	return points
}

// AgentSummary reports the workload of the agent.
func (r *Reporter) AgentSummary(ctx context.Context, agentID types.ID) (*AgentSummary, error) {
	cs, err := r.src.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s := &AgentSummary{}
	for i := range cs {
		if agentID.IsZero() || cs[i].AssignedTo != agentID {
			continue
		}
		s.Total++
		switch cs[i].Status {
		case domain.StatusAssigned:
			s.Assigned++
		case domain.StatusInProgress:
			s.InProgress++
		case domain.StatusResolved:
			s.Resolved++
		}
	}
	return s, nil
}

// CitizenSummary reports how many of the citizen's complaints are still open.
func (r *Reporter) CitizenSummary(ctx context.Context, ownerID types.ID) (*CitizenSummary, error) {
	cs, err := r.src.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s := &CitizenSummary{}
	for i := range cs {
		if cs[i].OwnerID != ownerID {
			continue
		}
		s.Total++
		if cs[i].Status.Open() {
			s.Open++
		}
		if cs[i].Status == domain.StatusResolved {
			s.Resolved++
		}
	}
	return s, nil
}
