package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/aavaaz-civic/platform/internal/shared/types"
	"golang.org/x/crypto/bcrypt"
)

// Store is the in-memory identity registry.
//
// Every account shares one demo password. That check exists only to mimic a
// login flow in the demo environment and is not an authentication boundary.
type Store struct {
	mu       sync.RWMutex
	users    []User
	byEmail  map[string]int
	password []byte // bcrypt hash of the demo password
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	hashCost int
	seed     []User
}

// WithHashCost sets the bcrypt cost used for the demo password hash.
func WithHashCost(cost int) Option {
	return func(o *storeOptions) { o.hashCost = cost }
}

// WithSeed preloads the registry with users.
func WithSeed(users []User) Option {
	return func(o *storeOptions) { o.seed = users }
}

// NewStore creates a registry that accepts demoPassword for every account.
func NewStore(demoPassword string, opts ...Option) (*Store, error) {
	o := storeOptions{hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(&o)
	}

	if demoPassword == "" {
		return nil, errors.Validation("demo password is required", nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), o.hashCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash demo password")
	}

	s := &Store{
		byEmail:  make(map[string]int),
		password: hash,
	}
	for _, u := range o.seed {
		if _, exists := s.byEmail[u.Email]; exists {
			return nil, errors.DuplicateIdentity(u.Email)
		}
		s.byEmail[u.Email] = len(s.users)
		s.users = append(s.users, u)
	}

	return s, nil
}

// FindByEmail returns the user registered under email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byEmail[email]
	if !ok {
		return nil, errors.NotFound("user", email)
	}
	u := s.users[i]
	return &u, nil
}

// FindByID returns the user with the given id.
func (s *Store) FindByID(ctx context.Context, id types.ID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, errors.NotFound("user", id.String())
}

// List returns all users in registration order.
func (s *Store) List(ctx context.Context) []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, len(s.users))
	copy(out, s.users)
	return out
}

// Register creates a new identity. The password is accepted but not stored;
// every account authenticates with the demo password.
func (s *Store) Register(ctx context.Context, name, email, password string, role Role) (*User, error) {
	name = strings.TrimSpace(name)
	details := map[string]string{}
	if name == "" {
		details["name"] = "required"
	}
	if strings.TrimSpace(email) == "" {
		details["email"] = "required"
	}
	if !role.Valid() {
		details["role"] = "must be one of citizen, agent, admin"
	}
	if len(details) > 0 {
		return nil, errors.Validation("invalid registration", details)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, errors.DuplicateIdentity(email)
	}

	u := User{
		ID:    s.nextIDLocked(),
		Name:  name,
		Email: email,
		Role:  role,
	}
	s.byEmail[email] = len(s.users)
	s.users = append(s.users, u)

	return &u, nil
}

// Authenticate checks email and password against the registry.
// Unknown email and wrong password both yield InvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	s.mu.RLock()
	i, ok := s.byEmail[email]
	var u User
	if ok {
		u = s.users[i]
	}
	hash := s.password
	s.mu.RUnlock()

	if !ok {
		return nil, errors.InvalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	return &u, nil
}

// nextIDLocked allocates len(users)+1, skipping ids already taken by seeds.
func (s *Store) nextIDLocked() types.ID {
	n := len(s.users) + 1
	for {
		id := types.SequenceID(n)
		taken := false
		for _, u := range s.users {
			if u.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
		n++
	}
}
