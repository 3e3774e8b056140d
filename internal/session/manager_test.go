package session

import (
	"context"
	"testing"

	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	users, err := identity.NewStore("password",
		identity.WithSeed(identity.DemoUsers()),
		identity.WithHashCost(bcrypt.MinCost),
	)
	require.NoError(t, err)
	return NewManager(users, NewMemoryStore(zerolog.Nop()), zerolog.Nop())
}

func TestSignInPersistsIdentity(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	u, err := m.SignIn(ctx, "agent@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAgent, u.Role)

	current, err := m.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, *u, *current)
}

func TestFailedSignInKeepsExistingSession(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.SignIn(ctx, "citizen@example.com", "password")
	require.NoError(t, err)

	_, err = m.SignIn(ctx, "admin@example.com", "wrong")
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))

	current, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "citizen@example.com", current.Email)
}

func TestSignUpAndSignOut(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	u, err := m.SignUp(ctx, "Jane", "jane@example.com", "pw", identity.RoleCitizen)
	require.NoError(t, err)

	current, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, current.ID)

	_, err = m.SignUp(ctx, "Jane Again", "jane@example.com", "pw", identity.RoleCitizen)
	assert.True(t, errors.Is(err, errors.ErrDuplicateIdentity))

	require.NoError(t, m.SignOut(ctx))
	current, err = m.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}
