package sessiongin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	sessionmiddleware "github.com/epiclo/go-session-middleware"
)

// DefaultUserIDKey is the gin.Context key holding the resolved user id.
const DefaultUserIDKey = "user_id"

// ErrMissingUserID is passed to the RequireSession error handler.
var ErrMissingUserID = errors.New("no user id found in context")

type ginMiddlewareConfig struct {
	errorHandler func(*gin.Context, error)
	contextKey   string
}

func newConfig(opts []Option) *ginMiddlewareConfig {
	config := &ginMiddlewareConfig{
		errorHandler: defaultGinErrorHandler,
		contextKey:   DefaultUserIDKey,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// NewGinMiddleware adapts a SessionMiddleware to Gin. The request always
// continues down the chain; rotated tokens are written as cookies before the
// next handler runs.
func NewGinMiddleware(m *sessionmiddleware.SessionMiddleware, opts ...Option) gin.HandlerFunc {
	config := newConfig(opts)

	return func(c *gin.Context) {
		var handler http.HandlerFunc = func(_ http.ResponseWriter, r *http.Request) {
			c.Request = r

			if userID, err := sessionmiddleware.GetUserID(r.Context()); err == nil {
				c.Set(config.contextKey, userID)
			}

			c.Next()
		}

		m.CheckSession(handler).ServeHTTP(c.Writer, c.Request)
	}
}

// RequireSession aborts requests that NewGinMiddleware did not resolve to a
// user. The default error handler answers 401.
func RequireSession(opts ...Option) gin.HandlerFunc {
	config := newConfig(opts)

	return func(c *gin.Context) {
		if _, ok := GetUserID(c, config.contextKey); !ok {
			config.errorHandler(c, ErrMissingUserID)
			c.Abort()
			return
		}
		c.Next()
	}
}

func defaultGinErrorHandler(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": err.Error(),
	})
}

// GetUserID returns the user id stored under contextKey, or under
// DefaultUserIDKey when contextKey is empty.
func GetUserID(c *gin.Context, contextKey string) (string, bool) {
	if contextKey == "" {
		contextKey = DefaultUserIDKey
	}
	userID := c.GetString(contextKey)
	return userID, userID != ""
}
