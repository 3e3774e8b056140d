package api

import (
	"context"
	"net/http"
	"time"

	"github.com/aavaaz-civic/platform/internal/audit"
	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/aavaaz-civic/platform/internal/shared/auth"
	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/aavaaz-civic/platform/internal/shared/events"
	"github.com/aavaaz-civic/platform/internal/shared/httputil"
	"github.com/aavaaz-civic/platform/internal/shared/metrics"
	"github.com/aavaaz-civic/platform/internal/shared/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const eventSource = "identity-service"

// Registry is the identity store as seen by the HTTP layer
type Registry interface {
	Authenticate(ctx context.Context, email, password string) (*identity.User, error)
	Register(ctx context.Context, name, email, password string, role identity.Role) (*identity.User, error)
	List(ctx context.Context) []identity.User
}

// Handler provides the sign-in, sign-up and profile endpoints
type Handler struct {
	users   Registry
	tokens  *auth.Tokens
	bus     events.EventBus
	limiter *middleware.IPRateLimiter
	log     zerolog.Logger
}

// NewHandler creates a new identity handler. limiter may be nil.
func NewHandler(users Registry, tokens *auth.Tokens, bus events.EventBus, limiter *middleware.IPRateLimiter, log zerolog.Logger) *Handler {
	return &Handler{
		users:   users,
		tokens:  tokens,
		bus:     bus,
		limiter: limiter,
		log:     log.With().Str("component", "identity-api").Logger(),
	}
}

// Routes registers the identity routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Middleware)
		}
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.tokens))
		r.Get("/me", h.Me)
		r.Post("/logout", h.Logout)
		r.With(auth.RequireRoles(identity.RoleAdmin)).Get("/users", h.ListUsers)
	})

	return r
}

// --- Request/Response types ---

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Role     identity.Role `json:"role"`
}

// SessionResponse is returned on sign-in and sign-up
type SessionResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *identity.User `json:"user"`
}

// --- Handlers ---

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		metrics.RecordAuthAttempt("login", false)
		if errors.Is(err, errors.ErrInvalidCredentials) {
			h.publish(r, audit.ActionLoginFailed, nil, map[string]any{
				"email":     req.Email,
				"client_ip": middleware.ClientIP(r),
			})
			h.log.Warn().Str("email", req.Email).Msg("sign-in rejected")
		}
		httputil.WriteError(w, err)
		return
	}

	metrics.RecordAuthAttempt("login", true)
	h.issue(w, r, user, audit.ActionLogin, http.StatusOK)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Role == "" {
		req.Role = identity.RoleCitizen
	}

	user, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		metrics.RecordAuthAttempt("register", false)
		httputil.WriteError(w, err)
		return
	}

	metrics.RecordAuthAttempt("register", true)
	h.issue(w, r, user, audit.ActionRegistered, http.StatusCreated)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, auth.GetUser(r.Context()))
}

// Logout is advisory: tokens are stateless and expire on their own.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	h.publish(r, audit.ActionLogout, user, map[string]any{"id": user.ID.String()})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.users.List(r.Context())

	if s := r.URL.Query().Get("role"); s != "" {
		role, err := identity.ParseRole(s)
		if err != nil {
			httputil.WriteError(w, errors.Validation("invalid role filter", map[string]string{"role": s}))
			return
		}
		filtered := users[:0]
		for _, u := range users {
			if u.Role == role {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"data":  users,
		"total": len(users),
	})
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, user *identity.User, action string, status int) {
	token, expires, err := h.tokens.Issue(user)
	if err != nil {
		httputil.WriteError(w, errors.Internal(err))
		return
	}

	h.publish(r, action, user, map[string]any{
		"id":    user.ID.String(),
		"email": user.Email,
		"role":  string(user.Role),
	})
	h.log.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).Msg(action)

	httputil.WriteJSON(w, status, SessionResponse{Token: token, ExpiresAt: expires, User: user})
}

func (h *Handler) publish(r *http.Request, eventType string, user *identity.User, data map[string]any) {
	if h.bus == nil {
		return
	}
	event := events.NewEvent(eventType, eventSource, data).
		WithCorrelation(chimw.GetReqID(r.Context()))
	if user != nil {
		event = event.WithActor(user.ID, string(user.Role))
	} else {
		event = event.WithActor("", "system")
	}
	if err := h.bus.Publish(r.Context(), event); err != nil {
		h.log.Error().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
