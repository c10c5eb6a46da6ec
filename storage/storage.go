// Package storage holds what the user and grant stores have in common.
package storage

import (
	"context"
	"errors"

	"github.com/epiclo/go-session-middleware/core"
	"github.com/epiclo/go-session-middleware/grant"
)

// ErrUserExists is returned by CreateUser when the username is taken.
var ErrUserExists = errors.New("user already exists")

// Store is implemented by the memory, redis and postgres backends.
type Store interface {
	grant.Repository
	grant.UserRepository

	CreateUser(ctx context.Context, user *core.User) error

	// FindUserByUsername returns core.ErrUserNotFound (possibly wrapped) for
	// an unknown username.
	FindUserByUsername(ctx context.Context, username string) (*core.User, error)

	Close() error
}
