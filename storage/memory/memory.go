// Package memory implements storage.Store in process memory.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/epiclo/go-session-middleware/core"
	"github.com/epiclo/go-session-middleware/grant"
	"github.com/epiclo/go-session-middleware/storage"
)

// Store keeps users and grants in maps guarded by a RWMutex.
type Store struct {
	mu        sync.RWMutex
	users     map[string]core.User
	usernames map[string]string
	grants    map[string]grant.Grant
}

var _ storage.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:     make(map[string]core.User),
		usernames: make(map[string]string),
		grants:    make(map[string]grant.Grant),
	}
}

func (s *Store) CreateUser(_ context.Context, user *core.User) error {
	const op = "storage.memory.CreateUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernames[user.Username]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}

	s.users[user.ID] = *user
	s.usernames[user.Username] = user.ID
	return nil
}

func (s *Store) FindUserByID(_ context.Context, userID string) (*core.User, error) {
	const op = "storage.memory.FindUserByID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, core.ErrUserNotFound)
	}
	return &user, nil
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*core.User, error) {
	const op = "storage.memory.FindUserByUsername"

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, core.ErrUserNotFound)
	}
	user := s.users[id]
	return &user, nil
}

func (s *Store) CreateGrant(_ context.Context, g *grant.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.grants[g.ID] = *g
	return nil
}

func (s *Store) GetGrant(_ context.Context, id string) (*grant.Grant, error) {
	const op = "storage.memory.GetGrant"

	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.grants[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, grant.ErrGrantNotFound)
	}
	return &g, nil
}

func (s *Store) ExtendGrant(_ context.Context, id string, expiresAt time.Time) error {
	return s.update("storage.memory.ExtendGrant", id, func(g *grant.Grant) {
		g.ExpiresAt = expiresAt
	})
}

func (s *Store) DisableGrant(_ context.Context, id string) error {
	return s.update("storage.memory.DisableGrant", id, func(g *grant.Grant) {
		g.Disabled = true
	})
}

func (s *Store) update(op, id string, fn func(*grant.Grant)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, grant.ErrGrantNotFound)
	}
	fn(&g)
	s.grants[id] = g
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
