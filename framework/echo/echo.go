package sessionecho

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	sessionmiddleware "github.com/epiclo/go-session-middleware"
)

// DefaultUserIDKey is the echo.Context key holding the resolved user id.
const DefaultUserIDKey = "user_id"

// ErrMissingUserID is passed to the RequireSession error handler.
var ErrMissingUserID = errors.New("no user id found in context")

// echoMiddlewareConfig holds all configuration for the middleware
type echoMiddlewareConfig struct {
	errorHandler func(echo.Context, error) error
	contextKey   string
}

func newConfig(opts []Option) *echoMiddlewareConfig {
	config := &echoMiddlewareConfig{
		errorHandler: defaultEchoErrorHandler,
		contextKey:   DefaultUserIDKey,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// NewEchoMiddleware adapts a SessionMiddleware to Echo. The request always
// continues down the chain; rotated tokens are written as cookies before the
// next handler runs.
func NewEchoMiddleware(m *sessionmiddleware.SessionMiddleware, opts ...Option) echo.MiddlewareFunc {
	config := newConfig(opts)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var nextErr error
			var handler http.HandlerFunc = func(_ http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)

				if userID, err := sessionmiddleware.GetUserID(r.Context()); err == nil {
					c.Set(config.contextKey, userID)
				}

				nextErr = next(c)
			}

			m.CheckSession(handler).ServeHTTP(c.Response(), c.Request())

			return nextErr
		}
	}
}

// RequireSession rejects requests that NewEchoMiddleware did not resolve to
// a user. The default error handler answers 401.
func RequireSession(opts ...Option) echo.MiddlewareFunc {
	config := newConfig(opts)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := GetUserID(c, config.contextKey); !ok {
				return config.errorHandler(c, ErrMissingUserID)
			}
			return next(c)
		}
	}
}

func defaultEchoErrorHandler(c echo.Context, err error) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"message": err.Error(),
	})
}

// GetUserID extracts the user id from the Echo context. An empty contextKey
// selects DefaultUserIDKey.
func GetUserID(c echo.Context, contextKey string) (string, bool) {
	if contextKey == "" {
		contextKey = DefaultUserIDKey
	}
	userID, ok := c.Get(contextKey).(string)
	return userID, ok && userID != ""
}
