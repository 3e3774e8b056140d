package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aavaaz-civic/platform/internal/audit"
	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/aavaaz-civic/platform/internal/shared/auth"
	"github.com/aavaaz-civic/platform/internal/shared/config"
	"github.com/aavaaz-civic/platform/internal/shared/events"
	"github.com/aavaaz-civic/platform/internal/shared/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type fixture struct {
	router http.Handler
	tokens *auth.Tokens
	rec    *recorder
}

func newFixture(t *testing.T, limiter *middleware.IPRateLimiter) *fixture {
	t.Helper()
	users, err := identity.NewStore("password",
		identity.WithSeed(identity.DemoUsers()),
		identity.WithHashCost(bcrypt.MinCost),
	)
	require.NoError(t, err)

	bus := events.NewBus(zerolog.Nop())
	rec := &recorder{}
	require.NoError(t, bus.Subscribe(context.Background(), "auth.*", "test", rec.handle))

	tokens := auth.NewTokens(config.NewForTesting().Auth)
	h := NewHandler(users, tokens, bus, limiter, zerolog.Nop())
	return &fixture{router: h.Routes(), tokens: tokens, rec: rec}
}

func (f *fixture) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var s SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s), rec.Body.String())
	return s
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/login", `{"email":"agent@example.com","password":"password"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	s := decodeSession(t, rec)
	require.NotNil(t, s.User)
	assert.Equal(t, "2", s.User.ID.String())
	assert.Equal(t, identity.RoleAgent, s.User.Role)
	assert.NotEmpty(t, s.Token)

	parsed, err := f.tokens.Parse(s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, parsed.ID)

	e := f.rec.last()
	assert.Equal(t, audit.ActionLogin, e.Type)
	assert.Equal(t, "agent", e.ActorType)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"wrong password", `{"email":"agent@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"ghost@example.com","password":"password"}`, http.StatusUnauthorized},
		{"malformed body", `{"email":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/login", tt.body, "")
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	assert.Equal(t, audit.ActionLoginFailed, f.rec.last().Type)
}

func TestRegister(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/register", `{"name":"New Citizen","email":"new@example.com","password":"x"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	s := decodeSession(t, rec)
	assert.Equal(t, identity.RoleCitizen, s.User.Role)
	assert.Equal(t, "4", s.User.ID.String())
	assert.Equal(t, audit.ActionRegistered, f.rec.last().Type)

	rec = f.do(t, http.MethodPost, "/register", `{"name":"Again","email":"new@example.com","password":"x"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/register", `{"name":"","email":"blank@example.com","role":"mayor"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeAndLogout(t *testing.T) {
	f := newFixture(t, nil)

	token, _, err := f.tokens.Issue(&identity.User{ID: "1", Name: "Citizen User", Email: "citizen@example.com", Role: identity.RoleCitizen})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me identity.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "citizen@example.com", me.Email)

	rec = f.do(t, http.MethodPost, "/logout", "", token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, audit.ActionLogout, f.rec.last().Type)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/me", "", "garbage").Code)
}

func TestListUsers(t *testing.T) {
	f := newFixture(t, nil)

	adminToken, _, err := f.tokens.Issue(&identity.User{ID: "3", Role: identity.RoleAdmin})
	require.NoError(t, err)
	citizenToken, _, err := f.tokens.Issue(&identity.User{ID: "1", Role: identity.RoleCitizen})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/users?role=agent", "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data  []identity.User `json:"data"`
		Total int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "agent@example.com", body.Data[0].Email)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/users?role=mayor", "", adminToken).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/users", "", citizenToken).Code)
}

func TestLoginRateLimited(t *testing.T) {
	f := newFixture(t, middleware.NewIPRateLimiter(1, 1))

	body := `{"email":"agent@example.com","password":"password"}`
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/login", body, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(t, http.MethodPost, "/login", body, "").Code)
}
