package sessionmiddleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/epiclo/go-session-middleware/core"
)

// SessionMiddleware resolves the caller's identity from the token cookies or
// the epicAuth header and rotates the credentials when needed.
type SessionMiddleware struct {
	core                  *core.Core
	accessTokenExtractor  TokenExtractor
	refreshTokenExtractor TokenExtractor
	cookies               *CookieWriter
	exclusionURLHandler   ExclusionURLHandler
	errorHandler          ErrorHandler
	logger                Logger
}

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core for consistent logging across the stack.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ExclusionURLHandler is a function that takes in a http.Request and returns
// true if the request should skip session resolution.
type ExclusionURLHandler func(r *http.Request) bool

// New constructs a new SessionMiddleware instance with the supplied options.
// WithCore is required.
//
//	middleware, err := sessionmiddleware.New(
//	    sessionmiddleware.WithCore(resolver),
//	    sessionmiddleware.WithDevelopment(cfg.Env == "development"),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
func New(opts ...Option) (*SessionMiddleware, error) {
	m := &SessionMiddleware{}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.core == nil {
		return nil, fmt.Errorf("invalid middleware configuration: %w", ErrCoreNil)
	}

	m.applyDefaults()

	return m, nil
}

// applyDefaults fills the optional fields not set by options.
func (m *SessionMiddleware) applyDefaults() {
	if m.accessTokenExtractor == nil {
		m.accessTokenExtractor = DefaultAccessTokenExtractor()
	}
	if m.refreshTokenExtractor == nil {
		m.refreshTokenExtractor = DefaultRefreshTokenExtractor()
	}
	if m.cookies == nil {
		m.cookies = NewCookieWriter(false)
	}
	if m.errorHandler == nil {
		m.errorHandler = DefaultErrorHandler
	}
}

// Cookies returns the cookie writer used for rotated tokens. Login and
// logout handlers use it to set and clear the same cookies.
func (m *SessionMiddleware) Cookies() *CookieWriter {
	return m.cookies
}

// GetUserID returns the user id resolved for the request.
func GetUserID(ctx context.Context) (string, error) {
	return core.GetUserID(ctx)
}

// HasUserID reports whether a user id was resolved for the request.
func HasUserID(ctx context.Context) bool {
	return core.HasUserID(ctx)
}

// GetResult returns the resolution result for the request.
func GetResult(ctx context.Context) (core.Result, bool) {
	return core.GetResult(ctx)
}

// CheckSession resolves the session and always calls next. Rotated tokens
// are written as cookies before next runs.
func (m *SessionMiddleware) CheckSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			if m.logger != nil {
				m.logger.Debug("skipping session resolution for excluded URL",
					"method", r.Method,
					"path", r.URL.Path)
			}
			next.ServeHTTP(w, r)
			return
		}

		creds := m.Credentials(r)
		result := m.core.Resolve(r.Context(), creds)

		if result.Tokens != nil {
			if m.logger != nil {
				m.logger.Debug("writing rotated token cookies",
					"user_id", result.UserID,
					"path", r.URL.Path)
			}
			m.cookies.SetTokenCookies(w, *result.Tokens)
		}

		next.ServeHTTP(w, r.WithContext(WithResult(r.Context(), result)))
	})
}

// Credentials extracts the access and refresh tokens from r. Malformed
// values count as absent.
func (m *SessionMiddleware) Credentials(r *http.Request) core.Credentials {
	return core.Credentials{
		AccessToken:  m.extract(r, m.accessTokenExtractor, "access"),
		RefreshToken: m.extract(r, m.refreshTokenExtractor, "refresh"),
	}
}

func (m *SessionMiddleware) extract(r *http.Request, extractor TokenExtractor, kind string) string {
	token, err := extractor(r)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("failed to extract token from request",
				"kind", kind,
				"error", err,
				"method", r.Method,
				"path", r.URL.Path)
		}
		return ""
	}
	return token
}

// WithResult stores result in ctx and, when it carries an identity, the
// user id as well.
func WithResult(ctx context.Context, result core.Result) context.Context {
	ctx = core.SetResult(ctx, result)
	if result.Authenticated() {
		ctx = core.SetUserID(ctx, result.UserID)
	}
	return ctx
}
