package sessionmiddleware

import (
	"errors"
	"net/http"
)

// ErrSessionMissing is passed to the ErrorHandler by RequireSession when the
// request carries no resolved identity.
var ErrSessionMissing = errors.New("session missing")

// ErrorHandler writes the response for a request rejected by
// RequireSession.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler is used when no handler is set with WithErrorHandler.
// It answers 401 for ErrSessionMissing and 500 for anything else.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case errors.Is(err, ErrSessionMissing):
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Something went wrong while checking the session."}`))
	}
}

// RequireSession guards next so that it only runs for requests that
// CheckSession resolved to a user. It must be mounted inside CheckSession.
func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !HasUserID(r.Context()) {
			if m.logger != nil {
				m.logger.Debug("rejecting request without session",
					"method", r.Method,
					"path", r.URL.Path)
			}
			m.errorHandler(w, r, ErrSessionMissing)
			return
		}
		next.ServeHTTP(w, r)
	})
}
