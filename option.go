package sessionmiddleware

import (
	"errors"
	"net/http"

	"github.com/epiclo/go-session-middleware/core"
)

// Option configures the SessionMiddleware.
// Returns error for validation failures.
type Option func(*SessionMiddleware) error

// WithCore sets the resolver used for every request (REQUIRED).
//
//	resolver, err := core.New(
//	    core.WithIssuer(issuer),
//	    core.WithStore(grants),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	middleware, err := sessionmiddleware.New(
//	    sessionmiddleware.WithCore(resolver),
//	)
func WithCore(c *core.Core) Option {
	return func(m *SessionMiddleware) error {
		if c == nil {
			return ErrCoreNil
		}
		m.core = c
		return nil
	}
}

// WithAccessTokenExtractor sets the function reading the access token.
//
// Default: access_token cookie, then the epicAuth header
func WithAccessTokenExtractor(e TokenExtractor) Option {
	return func(m *SessionMiddleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.accessTokenExtractor = e
		return nil
	}
}

// WithRefreshTokenExtractor sets the function reading the refresh token.
//
// Default: refresh_token cookie
func WithRefreshTokenExtractor(e TokenExtractor) Option {
	return func(m *SessionMiddleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.refreshTokenExtractor = e
		return nil
	}
}

// WithCookieWriter sets the writer for rotated token cookies.
func WithCookieWriter(cw *CookieWriter) Option {
	return func(m *SessionMiddleware) error {
		if cw == nil {
			return ErrCookieWriterNil
		}
		m.cookies = cw
		return nil
	}
}

// WithDevelopment drops the cookie domain so cookies work on localhost.
//
// Default: false
func WithDevelopment(development bool) Option {
	return func(m *SessionMiddleware) error {
		m.cookies = NewCookieWriter(development)
		return nil
	}
}

// WithErrorHandler sets the handler RequireSession calls for anonymous
// requests.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *SessionMiddleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithExclusionUrls configures URL patterns that skip session resolution.
// URLs can be full URLs or just paths.
func WithExclusionUrls(exclusions []string) Option {
	return func(m *SessionMiddleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionUrlsEmpty
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			requestFullURL := r.URL.String()
			requestPath := r.URL.Path

			for _, exclusion := range exclusions {
				if requestFullURL == exclusion || requestPath == exclusion {
					return true
				}
			}
			return false
		}
		return nil
	}
}

// WithLogger sets an optional logger for the middleware.
//
// The logger interface is compatible with log/slog.Logger; NewLogrusLogger
// adapts logrus.
func WithLogger(logger Logger) Option {
	return func(m *SessionMiddleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// Sentinel errors for configuration validation.
var (
	ErrCoreNil            = errors.New("core cannot be nil (use WithCore)")
	ErrTokenExtractorNil  = errors.New("token extractor cannot be nil")
	ErrCookieWriterNil    = errors.New("cookie writer cannot be nil")
	ErrErrorHandlerNil    = errors.New("error handler cannot be nil")
	ErrExclusionUrlsEmpty = errors.New("exclusion URLs list cannot be empty")
	ErrLoggerNil          = errors.New("logger cannot be nil")
)
