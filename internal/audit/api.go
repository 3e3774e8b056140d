package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/aavaaz-civic/platform/internal/shared/auth"
	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/aavaaz-civic/platform/internal/shared/httputil"
	"github.com/aavaaz-civic/platform/internal/shared/types"
	"github.com/go-chi/chi/v5"
)

// Handler provides HTTP handlers for the audit module
type Handler struct {
	repo AuditRepository
}

// NewHandler creates a new audit handler
func NewHandler(repo AuditRepository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the audit routes. All of them are admin only.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRoles(identity.RoleAdmin))

	r.Get("/", h.ListEntries)
	r.Get("/verify", h.VerifyChain)
	r.Get("/resource/{resourceType}/{resourceID}", h.GetByResource)

	// Entry by ID (must be after /verify to avoid conflicts)
	r.Get("/{entryID}", h.GetEntry)

	return r
}

// ListEntries lists audit entries with filters
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListEntriesFilter{
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
	}

	if actorID := q.Get("actor_id"); actorID != "" {
		if id, err := types.ParseID(actorID); err == nil {
			filter.ActorID = &id
		}
	}

	if actorType := q.Get("actor_type"); actorType != "" {
		at := ActorType(actorType)
		filter.ActorType = &at
	}

	if resourceID := q.Get("resource_id"); resourceID != "" {
		if id, err := types.ParseID(resourceID); err == nil {
			filter.ResourceID = &id
		}
	}

	if startTime := q.Get("start_time"); startTime != "" {
		if t, err := time.Parse(time.RFC3339, startTime); err == nil {
			filter.StartTime = &t
		}
	}

	if endTime := q.Get("end_time"); endTime != "" {
		if t, err := time.Parse(time.RFC3339, endTime); err == nil {
			filter.EndTime = &t
		}
	}

	filter.Limit = intParam(r, "limit", 100)
	filter.Offset = intParam(r, "offset", 0)

	entries, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"total": total,
	})
}

// GetEntry gets an audit entry by ID
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "entryID"))
	if err != nil {
		httputil.WriteError(w, errors.BadRequest("invalid entry ID"))
		return
	}

	entry, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, entry)
}

// VerifyChain verifies the integrity of the audit chain
func (h *Handler) VerifyChain(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 0)
	includeDetails := r.URL.Query().Get("details") == "true"

	result, err := h.repo.VerifyChain(r.Context(), limit, includeDetails)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetByResource gets audit entries for a specific resource
func (h *Handler) GetByResource(w http.ResponseWriter, r *http.Request) {
	resourceType := chi.URLParam(r, "resourceType")
	resourceID, err := types.ParseID(chi.URLParam(r, "resourceID"))
	if err != nil {
		httputil.WriteError(w, errors.BadRequest("invalid resource ID"))
		return
	}

	entries, err := h.repo.GetByResource(r.Context(), resourceType, resourceID, intParam(r, "limit", 50))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"total": len(entries),
	})
}

func intParam(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return def
}
