package session

import (
	"context"

	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/rs/zerolog"
)

// Authenticator is the part of the identity store a session needs.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*identity.User, error)
	Register(ctx context.Context, name, email, password string, role identity.Role) (*identity.User, error)
}

// Manager signs users in and out and remembers who is signed in.
type Manager struct {
	users Authenticator
	store Store
	log   zerolog.Logger
}

func NewManager(users Authenticator, store Store, log zerolog.Logger) *Manager {
	return &Manager{users: users, store: store, log: log}
}

// SignIn authenticates and persists the identity on success.
// A failed attempt leaves the current session untouched.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*identity.User, error) {
	u, err := m.users.Authenticate(ctx, email, password)
	if err != nil {
		m.log.Info().Str("email", email).Msg("sign-in rejected")
		return nil, err
	}
	if err := m.store.Save(ctx, u); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}
	m.log.Info().Str("user_id", u.ID.String()).Str("role", string(u.Role)).Msg("signed in")
	return u, nil
}

// SignUp registers a new identity and signs it in.
func (m *Manager) SignUp(ctx context.Context, name, email, password string, role identity.Role) (*identity.User, error) {
	u, err := m.users.Register(ctx, name, email, password, role)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, u); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}
	m.log.Info().Str("user_id", u.ID.String()).Str("role", string(u.Role)).Msg("registered")
	return u, nil
}

// SignOut clears the stored identity.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return errors.Wrap(err, "failed to clear session")
	}
	m.log.Info().Msg("signed out")
	return nil
}

// Current returns the signed-in user, or nil when signed out.
func (m *Manager) Current(ctx context.Context) (*identity.User, error) {
	u, err := m.store.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session")
	}
	return u, nil
}
