package token

import (
	"errors"
	"time"
)

// Option configures an Issuer. Options return errors so that New can reject
// invalid configuration.
type Option func(*Issuer) error

// WithIssuer sets the iss claim written into new tokens and required of
// decoded ones.
//
// Default: ".epiclo.io"
func WithIssuer(issuer string) Option {
	return func(i *Issuer) error {
		if issuer == "" {
			return errors.New("issuer cannot be empty")
		}
		i.issuer = issuer
		return nil
	}
}

// WithExpiresIn sets the default token lifetime.
//
// Default: 7 days
func WithExpiresIn(d time.Duration) Option {
	return func(i *Issuer) error {
		if d <= 0 {
			return errors.New("default expiry must be positive")
		}
		i.expiresIn = d
		return nil
	}
}

// WithLeeway sets the clock skew tolerated for exp, nbf and iat.
func WithLeeway(d time.Duration) Option {
	return func(i *Issuer) error {
		if d < 0 {
			return errors.New("leeway cannot be negative")
		}
		i.leeway = d
		return nil
	}
}

// WithClock replaces time.Now for both signing and verification.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		i.now = now
		return nil
	}
}

// WithAllowMissingSecret lets New succeed with an empty secret. Every Create
// and Decode call on such an Issuer fails with ErrConfiguration.
func WithAllowMissingSecret() Option {
	return func(i *Issuer) error {
		i.allowMissingSecret = true
		return nil
	}
}

// SignOption overrides the issuer defaults for a single Create call.
type SignOption func(*signOptions)

type signOptions struct {
	issuer    string
	subject   string
	expiresIn time.Duration
}

// ExpiresIn sets the lifetime of the token. A zero or negative duration
// produces a token without an exp claim.
func ExpiresIn(d time.Duration) SignOption {
	return func(o *signOptions) {
		o.expiresIn = d
	}
}

// NoExpiry signs the token without an exp claim.
func NoExpiry() SignOption {
	return ExpiresIn(0)
}

// IssuedBy overrides the iss claim. Tokens minted with a foreign issuer will
// not pass Decode on an Issuer configured with a different one.
func IssuedBy(issuer string) SignOption {
	return func(o *signOptions) {
		o.issuer = issuer
	}
}

// Subject sets the sub claim.
func Subject(subject string) SignOption {
	return func(o *signOptions) {
		o.subject = subject
	}
}
