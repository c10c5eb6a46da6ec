package grant

import (
	"context"
	"errors"
	"time"

	"github.com/epiclo/go-session-middleware/core"
)

var (
	// ErrGrantNotFound is returned by a Repository when no grant has the
	// requested id.
	ErrGrantNotFound = errors.New("grant not found")

	// ErrGrantRevoked is returned when a grant exists but can no longer be
	// rotated: it was disabled, expired or belongs to another user.
	ErrGrantRevoked = errors.New("grant revoked")
)

// Grant is the server-side record behind a refresh token. Its ID is the
// token_id claim.
type Grant struct {
	ID        string
	UserID    string
	Disabled  bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Active reports whether the grant can still be rotated at now.
func (g *Grant) Active(now time.Time) bool {
	return !g.Disabled && now.Before(g.ExpiresAt)
}

// Repository persists grants.
type Repository interface {
	CreateGrant(ctx context.Context, g *Grant) error

	// GetGrant returns ErrGrantNotFound (possibly wrapped) for an unknown id.
	GetGrant(ctx context.Context, id string) (*Grant, error)

	ExtendGrant(ctx context.Context, id string, expiresAt time.Time) error
	DisableGrant(ctx context.Context, id string) error
}

// UserRepository looks users up by id. It returns core.ErrUserNotFound
// (possibly wrapped) for an unknown id.
type UserRepository interface {
	FindUserByID(ctx context.Context, userID string) (*core.User, error)
}
