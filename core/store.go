package core

import (
	"context"
	"time"
)

// User is the record a refresh token resolves to.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore is the user-record store consulted during rotation.
//
// FindUserByID returns ErrUserNotFound (possibly wrapped) when no user has
// the id.
//
// RotateRefreshToken checks that tokenID still names a live grant of user,
// issues a new access token and a new or unchanged refresh token, and does
// any bookkeeping on the stored grant. It returns an error when the grant is
// unknown, revoked or expired.
type UserStore interface {
	FindUserByID(ctx context.Context, userID string) (*User, error)
	RotateRefreshToken(ctx context.Context, user *User, tokenID string, claimedExpiry time.Time, rawRefreshToken string) (TokenPair, error)
}
