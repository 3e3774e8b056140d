package report

import (
	"net/http"
	"strconv"

	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/aavaaz-civic/platform/internal/shared/auth"
	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/aavaaz-civic/platform/internal/shared/httputil"
	"github.com/go-chi/chi/v5"
)

// maxTrendPeriods caps the trend window a client may request
const maxTrendPeriods = 36

// Handler provides HTTP handlers for dashboard reports
type Handler struct {
	reporter       *Reporter
	defaultPeriods int
}

func NewHandler(reporter *Reporter, defaultPeriods int) *Handler {
	if defaultPeriods <= 0 {
		defaultPeriods = DefaultTrendPeriods
	}
	return &Handler{reporter: reporter, defaultPeriods: defaultPeriods}
}

// Routes registers the report routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRoles(identity.RoleAdmin))
		r.Get("/statistics", h.GetStatistics)
		r.Get("/trend", h.GetTrend)
	})
	r.With(auth.RequireRoles(identity.RoleAgent)).Get("/agent", h.GetAgentSummary)
	r.With(auth.RequireRoles(identity.RoleCitizen)).Get("/citizen", h.GetCitizenSummary)

	return r
}

func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reporter.Statistics(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetTrend(w http.ResponseWriter, r *http.Request) {
	periods := h.defaultPeriods
	if p := r.URL.Query().Get("periods"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed <= 0 || parsed > maxTrendPeriods {
			httputil.WriteError(w, errors.Validation("invalid periods", map[string]string{
				"periods": "must be between 1 and " + strconv.Itoa(maxTrendPeriods),
			}))
			return
		}
		periods = parsed
	}

	points, err := h.reporter.MonthlyTrend(r.Context(), periods)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"data": points})
}

func (h *Handler) GetAgentSummary(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	summary, err := h.reporter.AgentSummary(r.Context(), user.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) GetCitizenSummary(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	summary, err := h.reporter.CitizenSummary(r.Context(), user.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}
