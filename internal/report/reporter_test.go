package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aavaaz-civic/platform/internal/complaint/domain"
	"github.com/aavaaz-civic/platform/internal/complaint/store"
	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/aavaaz-civic/platform/internal/shared/auth"
	"github.com/aavaaz-civic/platform/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type sliceSource []domain.Complaint

func (s sliceSource) ListAll(ctx context.Context) ([]domain.Complaint, error) {
	return s, nil
}

func seededReporter() *Reporter {
	s := store.New(store.WithSeed(store.DemoComplaints(now)))
	return NewReporter(s, WithClock(func() time.Time { return now }))
}

func TestStatisticsOverSeeds(t *testing.T) {
	stats, err := seededReporter().Statistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Total)
	assert.Len(t, stats.ByStatus, 5)
	assert.Len(t, stats.ByCategory, 5)
	for _, st := range domain.Statuses() {
		assert.Equal(t, 1, stats.ByStatus[st], st)
	}
	for _, cat := range domain.Categories() {
		assert.Equal(t, 1, stats.ByCategory[cat], cat)
	}
	assert.Equal(t, 1, stats.Rated)
	assert.Equal(t, 4.0, stats.AverageRating)
}

func TestStatisticsEmpty(t *testing.T) {
	stats := Compute(nil)

	assert.Zero(t, stats.Total)
	assert.Len(t, stats.ByStatus, 5)
	assert.Len(t, stats.ByCategory, 5)
	assert.Zero(t, stats.ByStatus[domain.StatusPending])
	assert.Zero(t, stats.AverageRating)
}

func TestStatisticsGroupingsSumToTotal(t *testing.T) {
	cs := []domain.Complaint{
		{Status: domain.StatusPending, Category: domain.CategoryRoads},
		{Status: domain.StatusPending, Category: domain.CategoryRoads},
		{Status: domain.StatusResolved, Category: domain.CategoryWater},
	}
	stats := Compute(cs)

	byStatus, byCategory := 0, 0
	for _, n := range stats.ByStatus {
		byStatus += n
	}
	for _, n := range stats.ByCategory {
		byCategory += n
	}
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, stats.Total, byStatus)
	assert.Equal(t, stats.Total, byCategory)
	assert.Equal(t, 2, stats.ByStatus[domain.StatusPending])
	assert.Equal(t, 2, stats.ByCategory[domain.CategoryRoads])
}

func TestBucketByMonth(t *testing.T) {
	at := func(y int, m time.Month, d int) domain.Complaint {
		return domain.Complaint{CreatedAt: time.Date(y, m, d, 12, 0, 0, 0, time.UTC)}
	}
	cs := []domain.Complaint{
		at(2026, 3, 1),
		at(2026, 3, 9),
		at(2026, 1, 31),
		at(2025, 10, 1),
		at(2025, 9, 30), // outside a six month window
		at(2026, 4, 1),  // future
	}

	points := BucketByMonth(cs, 6, now)
	require.Len(t, points, 6)

	labels := make([]string, len(points))
	counts := make([]int, len(points))
	for i, p := range points {
		labels[i] = p.Label
		counts[i] = p.Count
	}
	assert.Equal(t, []string{"Oct 2025", "Nov 2025", "Dec 2025", "Jan 2026", "Feb 2026", "Mar 2026"}, labels)
	assert.Equal(t, []int{1, 0, 0, 1, 0, 2}, counts)
}

func TestBucketByMonthDefaultsPeriods(t *testing.T) {
	assert.Len(t, BucketByMonth(nil, 0, now), DefaultTrendPeriods)
	assert.Len(t, BucketByMonth(nil, -3, now), DefaultTrendPeriods)
}

func TestBucketByMonthUsesUTC(t *testing.T) {
	// 23:30 on Feb 28 in UTC-5 is already March in UTC.
	est := time.FixedZone("EST", -5*3600)
	cs := []domain.Complaint{{CreatedAt: time.Date(2026, 2, 28, 23, 30, 0, 0, est)}}

	points := BucketByMonth(cs, 2, now)
	assert.Equal(t, 0, points[0].Count)
	assert.Equal(t, 1, points[1].Count)
}

func TestMonthlyTrendOverSeeds(t *testing.T) {
	points, err := seededReporter().MonthlyTrend(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "Feb 2026", points[0].Label)
	assert.Equal(t, 3, points[0].Count)
	assert.Equal(t, "Mar 2026", points[1].Label)
	assert.Equal(t, 2, points[1].Count)
}

func TestAgentSummary(t *testing.T) {
	r := seededReporter()

	s, err := r.AgentSummary(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, &AgentSummary{Total: 3, Assigned: 1, InProgress: 1, Resolved: 1}, s)

	s, err = r.AgentSummary(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, s.Total)
}

func TestCitizenSummary(t *testing.T) {
	r := seededReporter()

	s, err := r.CitizenSummary(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, &CitizenSummary{Total: 5, Open: 3, Resolved: 1}, s)

	s, err = r.CitizenSummary(context.Background(), types.ID("99"))
	require.NoError(t, err)
	assert.Zero(t, s.Total)
}

func serve(t *testing.T, user *identity.User, target string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(seededReporter(), 6)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if user != nil {
		req = req.WithContext(auth.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHandlerStatisticsAdminOnly(t *testing.T) {
	admin := &identity.User{ID: "3", Role: identity.RoleAdmin}
	citizen := &identity.User{ID: "1", Role: identity.RoleCitizen}

	rec := serve(t, admin, "/statistics")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 5, stats.Total)

	assert.Equal(t, http.StatusForbidden, serve(t, citizen, "/statistics").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, nil, "/statistics").Code)
}

func TestHandlerTrend(t *testing.T) {
	admin := &identity.User{ID: "3", Role: identity.RoleAdmin}

	rec := serve(t, admin, "/trend?periods=3")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []TrendPoint `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 3)

	assert.Equal(t, http.StatusBadRequest, serve(t, admin, "/trend?periods=abc").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, admin, "/trend?periods=0").Code)
}

func TestHandlerSummaries(t *testing.T) {
	agent := &identity.User{ID: "2", Role: identity.RoleAgent}
	citizen := &identity.User{ID: "1", Role: identity.RoleCitizen}

	rec := serve(t, agent, "/agent")
	require.Equal(t, http.StatusOK, rec.Code)
	var as AgentSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &as))
	assert.Equal(t, 3, as.Total)

	rec = serve(t, citizen, "/citizen")
	require.Equal(t, http.StatusOK, rec.Code)
	var cs CitizenSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cs))
	assert.Equal(t, 3, cs.Open)

	assert.Equal(t, http.StatusForbidden, serve(t, citizen, "/agent").Code)
}
