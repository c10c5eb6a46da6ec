package core

import (
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/epiclo/go-session-middleware/token"
)

// TracerName is the instrumentation name used when no tracer is configured.
const TracerName = "github.com/epiclo/go-session-middleware/core"

// Option is a function that configures the Core.
// Options return errors to enable validation during construction.
type Option func(*Core) error

// New creates a new Core instance with the provided options.
//
// WithIssuer and WithStore are required.
//
//	c, err := core.New(
//	    core.WithIssuer(issuer),
//	    core.WithStore(grants),
//	    core.WithLogger(slog.Default()),
//	)
func New(opts ...Option) (*Core, error) {
	c := &Core{
		rotationThreshold: DefaultRotationThreshold,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	if c.now == nil {
		c.now = c.issuer.Now
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(TracerName)
	}

	return c, nil
}

// validate ensures all required fields are set.
func (c *Core) validate() error {
	if c.issuer == nil {
		return errors.New("issuer is required but not set (use WithIssuer option)")
	}
	if c.store == nil {
		return errors.New("user store is required but not set (use WithStore option)")
	}
	return nil
}

// WithIssuer sets the token issuer used to decode access and refresh tokens.
func WithIssuer(issuer *token.Issuer) Option {
	return func(c *Core) error {
		if issuer == nil {
			return errors.New("issuer cannot be nil")
		}
		c.issuer = issuer
		return nil
	}
}

// WithStore sets the user-record store consulted during rotation.
func WithStore(store UserStore) Option {
	return func(c *Core) error {
		if store == nil {
			return errors.New("user store cannot be nil")
		}
		c.store = store
		return nil
	}
}

// WithRotationThreshold sets the remaining access token lifetime below which
// credentials are rotated.
//
// Default: 30 minutes
func WithRotationThreshold(d time.Duration) Option {
	return func(c *Core) error {
		if d < 0 {
			return errors.New("rotation threshold cannot be negative")
		}
		c.rotationThreshold = d
		return nil
	}
}

// WithClock replaces the time source used for the expiry check. It defaults
// to the issuer's clock.
func WithClock(now func() time.Time) Option {
	return func(c *Core) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		c.now = now
		return nil
	}
}

// WithLogger sets an optional logger for the Core.
func WithLogger(logger Logger) Option {
	return func(c *Core) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer used for the resolve and rotate
// spans.
//
// Default: otel.Tracer(TracerName) from the global provider
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Core) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithMetrics sets an optional metrics sink.
func WithMetrics(metrics Metrics) Option {
	return func(c *Core) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		c.metrics = metrics
		return nil
	}
}
