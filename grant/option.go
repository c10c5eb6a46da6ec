package grant

import (
	"errors"
	"time"

	"github.com/epiclo/go-session-middleware/core"
)

// Option configures a Service.
type Option func(*Service) error

// WithAccessTokenTTL sets the lifetime of issued access tokens.
//
// Default: 1 hour
func WithAccessTokenTTL(d time.Duration) Option {
	return func(s *Service) error {
		if d <= 0 {
			return errors.New("access token TTL must be positive")
		}
		s.accessTTL = d
		return nil
	}
}

// WithRefreshTokenTTL sets the lifetime of refresh tokens and grants.
//
// Default: 30 days
func WithRefreshTokenTTL(d time.Duration) Option {
	return func(s *Service) error {
		if d <= 0 {
			return errors.New("refresh token TTL must be positive")
		}
		s.refreshTTL = d
		return nil
	}
}

// WithRenewWithin sets the remaining refresh token lifetime below which a
// rotation re-mints the refresh token.
//
// Default: 15 days
func WithRenewWithin(d time.Duration) Option {
	return func(s *Service) error {
		if d < 0 {
			return errors.New("renewal window cannot be negative")
		}
		s.renewWithin = d
		return nil
	}
}

// WithClock replaces the time source. It defaults to the issuer's clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		s.now = now
		return nil
	}
}

// WithIDGenerator replaces the grant id generator.
//
// Default: uuid.NewString
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) error {
		if newID == nil {
			return errors.New("id generator cannot be nil")
		}
		s.newID = newID
		return nil
	}
}

// WithLogger sets an optional logger.
func WithLogger(logger core.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}
