// Package session keeps the active identity of a client under a single key,
// the way a browser keeps it in local storage: present means signed in,
// absent means signed out.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/rs/zerolog"
)

// DefaultKey is the record key holding the serialized user.
const DefaultKey = "aavaaz-user"

// Store persists the active identity.
type Store interface {
	// Load returns the stored user, or nil when signed out.
	Load(ctx context.Context) (*identity.User, error)
	Save(ctx context.Context, user *identity.User) error
	Clear(ctx context.Context) error
}

// decodeUser parses a stored record. A record that does not decode into a
// usable user is treated as absent.
func decodeUser(log zerolog.Logger, raw json.RawMessage) *identity.User {
	var u identity.User
	if err := json.Unmarshal(raw, &u); err != nil {
		log.Warn().Err(err).Msg("failed to parse stored user")
		return nil
	}
	if u.ID.IsZero() || !u.Role.Valid() {
		log.Warn().Str("id", u.ID.String()).Str("role", string(u.Role)).Msg("stored user is incomplete")
		return nil
	}
	return &u
}

// FileStore keeps records in a JSON object file (key -> value), surviving
// process restarts. Other keys in the file are preserved.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  string
	log  zerolog.Logger
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path, key string, log zerolog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("session path is required")
	}
	if key == "" {
		key = DefaultKey
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}
	return &FileStore{path: path, key: key, log: log}, nil
}

func (s *FileStore) Load(ctx context.Context) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	raw, ok := records[s.key]
	if !ok {
		return nil, nil
	}
	return decodeUser(s.log, raw), nil
}

func (s *FileStore) Save(ctx context.Context, user *identity.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readLocked()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	records[s.key] = raw
	return s.writeLocked(records)
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readLocked()
	if err != nil {
		return err
	}
	if _, ok := records[s.key]; !ok {
		return nil
	}
	delete(records, s.key)
	return s.writeLocked(records)
}

// readLocked returns the records in the file. A missing file is empty; an
// unreadable one is logged and treated as empty.
func (s *FileStore) readLocked() (map[string]json.RawMessage, error) {
	records := map[string]json.RawMessage{}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("session file is corrupt; starting empty")
		return map[string]json.RawMessage{}, nil
	}
	return records, nil
}

// writeLocked replaces the file atomically.
func (s *FileStore) writeLocked(records map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// MemoryStore keeps the record in process memory.
type MemoryStore struct {
	mu  sync.Mutex
	raw json.RawMessage
	log zerolog.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{log: log}
}

func (s *MemoryStore) Load(ctx context.Context) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, nil
	}
	return decodeUser(s.log, s.raw), nil
}

func (s *MemoryStore) Save(ctx context.Context, user *identity.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	s.mu.Lock()
	s.raw = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.raw = nil
	s.mu.Unlock()
	return nil
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
