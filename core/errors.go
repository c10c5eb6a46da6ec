package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned by a UserStore when no user has the
	// requested id.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnknownUser is returned by Rotate when the user named by a refresh
	// token no longer exists.
	ErrUnknownUser = errors.New("refresh token user does not exist")

	// ErrRotation is returned by Rotate when the store rejects the
	// rotation. It is typically wrapped in a *RotationError.
	ErrRotation = errors.New("refresh token rotation rejected")

	// ErrUserIDNotFound is returned when no user id is stored in a context.
	ErrUserIDNotFound = errors.New("user id not found in context")
)

// RotationError carries the grant the store refused to rotate.
type RotationError struct {
	UserID  string
	TokenID string

	// Details contains the error reported by the store.
	Details error
}

// Error implements the error interface.
func (e *RotationError) Error() string {
	msg := fmt.Sprintf("%s (user %q, token %q)", ErrRotation, e.UserID, e.TokenID)
	if e.Details != nil {
		return msg + ": " + e.Details.Error()
	}
	return msg
}

// Unwrap returns the store error.
func (e *RotationError) Unwrap() error {
	return e.Details
}

// Is allows the error to be compared with ErrRotation.
func (e *RotationError) Is(target error) bool {
	return target == ErrRotation
}
