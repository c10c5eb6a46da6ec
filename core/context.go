package core

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	userIDKey contextKey = iota
	resultKey
)

// SetUserID stores the resolved user id in the context.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the user id resolved for the request, or
// ErrUserIDNotFound for an anonymous request.
//
//	userID, err := core.GetUserID(r.Context())
//	if err != nil {
//	    http.Error(w, "Unauthorized", http.StatusUnauthorized)
//	    return
//	}
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", ErrUserIDNotFound
	}
	return userID, nil
}

// HasUserID reports whether a user id was resolved for the request.
func HasUserID(ctx context.Context) bool {
	_, err := GetUserID(ctx)
	return err == nil
}

// SetResult stores the full resolution result in the context.
func SetResult(ctx context.Context, result Result) context.Context {
	return context.WithValue(ctx, resultKey, result)
}

// GetResult returns the resolution result stored by an adapter.
func GetResult(ctx context.Context) (Result, bool) {
	result, ok := ctx.Value(resultKey).(Result)
	return result, ok
}
