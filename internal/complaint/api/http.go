package api

import (
	"net/http"

	"github.com/aavaaz-civic/platform/internal/complaint/domain"
	"github.com/aavaaz-civic/platform/internal/complaint/service"
	"github.com/aavaaz-civic/platform/internal/shared/auth"
	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/aavaaz-civic/platform/internal/shared/httputil"
	"github.com/aavaaz-civic/platform/internal/shared/types"
	"github.com/go-chi/chi/v5"
)

// Handler provides HTTP handlers for the complaint module
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new complaint handler
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the complaint routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListComplaints)
	r.Post("/", h.SubmitComplaint)

	r.Route("/{complaintID}", func(r chi.Router) {
		r.Get("/", h.GetComplaint)
		r.Get("/timeline", h.GetTimeline)

		// Status transitions
		r.Post("/assign", h.AssignComplaint)
		r.Post("/start", h.StartComplaint)
		r.Post("/resolve", h.ResolveComplaint)
		r.Post("/reject", h.RejectComplaint)

		// Citizen feedback
		r.Post("/rate", h.RateComplaint)
	})

	return r
}

// --- Request/Response types ---

type AssignRequest struct {
	AgentID types.ID `json:"agent_id"`
}

type ResolveRequest struct {
	Notes  string   `json:"notes"`
	Images []string `json:"images,omitempty"`
}

type RejectRequest struct {
	Notes string `json:"notes"`
}

type RateRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}

type ComplaintResponse struct {
	*domain.Complaint
	Actions []domain.Action `json:"actions"`
}

type TimelineResponse struct {
	Status  domain.Status         `json:"status"`
	Steps   []domain.TimelineStep `json:"steps"`
	Current int                   `json:"current"`
}

// --- Handlers ---

func (h *Handler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ListFilter{Search: q.Get("search")}

	if s := q.Get("status"); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			httputil.WriteError(w, errors.Validation("invalid status filter", map[string]string{"status": s}))
			return
		}
		filter.Status = &status
	}

	if c := q.Get("category"); c != "" {
		category, err := domain.ParseCategory(c)
		if err != nil {
			httputil.WriteError(w, errors.Validation("invalid category filter", map[string]string{"category": c}))
			return
		}
		filter.Category = &category
	}

	complaints, err := h.svc.List(r.Context(), auth.GetUser(r.Context()), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"data":  complaints,
		"total": len(complaints),
	})
}

func (h *Handler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	user := auth.GetUser(r.Context())
	c, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ComplaintResponse{
		Complaint: c,
		Actions:   domain.Actions(user, c),
	})
}

func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	c, err := h.svc.Get(r.Context(), auth.GetUser(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	steps, current := domain.Timeline(c.Status)
	httputil.WriteJSON(w, http.StatusOK, TimelineResponse{
		Status:  c.Status,
		Steps:   steps,
		Current: current,
	})
}

func (h *Handler) SubmitComplaint(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitInput
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.svc.Submit(r.Context(), auth.GetUser(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) AssignComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	var req AssignRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.respond(w)(h.svc.Assign(r.Context(), auth.GetUser(r.Context()), id, req.AgentID))
}

func (h *Handler) StartComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	h.respond(w)(h.svc.Start(r.Context(), auth.GetUser(r.Context()), id))
}

func (h *Handler) ResolveComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	var req ResolveRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.respond(w)(h.svc.Resolve(r.Context(), auth.GetUser(r.Context()), id, req.Notes, req.Images))
}

func (h *Handler) RejectComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	var req RejectRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.respond(w)(h.svc.Reject(r.Context(), auth.GetUser(r.Context()), id, req.Notes))
}

func (h *Handler) RateComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	var req RateRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.respond(w)(h.svc.Rate(r.Context(), auth.GetUser(r.Context()), id, req.Rating, req.Feedback))
}

// respond writes the outcome of a lifecycle operation
func (h *Handler) respond(w http.ResponseWriter) func(*domain.Complaint, error) {
	return func(c *domain.Complaint, err error) {
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, c)
	}
}

func complaintID(w http.ResponseWriter, r *http.Request) (types.ID, bool) {
	id, err := types.ParseID(chi.URLParam(r, "complaintID"))
	if err != nil {
		httputil.WriteError(w, errors.BadRequest("invalid complaint ID"))
		return "", false
	}
	return id, true
}
