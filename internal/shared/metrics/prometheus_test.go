package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/complaints/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/complaints/{id}", "418"))
	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/complaints/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/complaints/{id}", "418"))

	assert.Equal(t, 3.0, after-before)
}

func TestBusinessMetrics(t *testing.T) {
	before := testutil.ToFloat64(complaintTransitions.WithLabelValues("pending", "assigned"))
	RecordStatusChange("pending", "assigned")
	assert.Equal(t, 1.0, testutil.ToFloat64(complaintTransitions.WithLabelValues("pending", "assigned"))-before)

	before = testutil.ToFloat64(authAttempts.WithLabelValues("login", "failure"))
	RecordAuthAttempt("login", false)
	assert.Equal(t, 1.0, testutil.ToFloat64(authAttempts.WithLabelValues("login", "failure"))-before)

	RecordRating(4)
	assert.Equal(t, 1, testutil.CollectAndCount(complaintRatings, "complaint_rating"))
}
