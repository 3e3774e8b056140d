package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var citizen = &identity.User{ID: "1", Name: "Citizen User", Email: "citizen@example.com", Role: identity.RoleCitizen}

func TestFileStoreRoundTripSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s, err := NewFileStore(path, DefaultKey, zerolog.Nop())
	require.NoError(t, err)

	u, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, u, "fresh store is signed out")

	require.NoError(t, s.Save(ctx, citizen))

	reopened, err := NewFileStore(path, DefaultKey, zerolog.Nop())
	require.NoError(t, err)
	u, err = reopened.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, *citizen, *u)

	require.NoError(t, reopened.Clear(ctx))
	u, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestFileStoreRecordLayout(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewFileStore(path, DefaultKey, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, citizen))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Equal(t, map[string]string{
		"id":    "1",
		"name":  "Citizen User",
		"email": "citizen@example.com",
		"role":  "citizen",
	}, records["aavaaz-user"])
}

func TestFileStorePreservesOtherKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark"}`), 0o600))

	s, err := NewFileStore(path, DefaultKey, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, citizen))
	require.NoError(t, s.Clear(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(data))
}

func TestFileStoreCorruptRecordIsSignedOut(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{{{`},
		{"bad user", `{"aavaaz-user": "oops"}`},
		{"missing role", `{"aavaaz-user": {"id": "1", "name": "x"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			s, err := NewFileStore(path, DefaultKey, zerolog.Nop())
			require.NoError(t, err)

			u, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, u)
		})
	}
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	_, err := NewFileStore("", DefaultKey, zerolog.Nop())
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zerolog.Nop())

	u, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, s.Save(ctx, citizen))
	u, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, *citizen, *u)

	// Loaded users are copies.
	u.Name = "changed"
	again, _ := s.Load(ctx)
	assert.Equal(t, "Citizen User", again.Name)

	require.NoError(t, s.Clear(ctx))
	u, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	assert.Error(t, s.Save(ctx, nil))
}
