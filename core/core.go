package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/epiclo/go-session-middleware/token"
)

// DefaultRotationThreshold is the remaining access token lifetime below which
// the credentials are rotated.
const DefaultRotationThreshold = 30 * time.Minute

// Span names.
const (
	spanResolve = "session.resolve"
	spanRotate  = "session.rotate"
)

// Rotation outcomes reported to Metrics.
const (
	RotationSuccess      = "success"
	RotationInvalidToken = "invalid_token"
	RotationUnknownUser  = "unknown_user"
	RotationRejected     = "rejected"
	RotationStoreError   = "store_error"
)

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives resolution and rotation outcomes.
type Metrics interface {
	ObserveResolution(status Status, rotated bool)
	ObserveRotation(outcome string, elapsed time.Duration)
}

// Core resolves request identities from access and refresh tokens.
type Core struct {
	issuer            *token.Issuer
	store             UserStore
	rotationThreshold time.Duration
	now               func() time.Time
	logger            Logger
	tracer            trace.Tracer
	metrics           Metrics
}

// Resolve establishes the user id for a request carrying creds. It never
// fails; failures are reported through the returned Result.
func (c *Core) Resolve(ctx context.Context, creds Credentials) Result {
	ctx, span := c.tracer.Start(ctx, spanResolve)
	defer span.End()

	result := c.resolve(ctx, creds)

	span.SetAttributes(
		attribute.String("session.status", result.Status.String()),
		attribute.Bool("session.rotated", result.Rotated()),
	)
	if c.metrics != nil {
		c.metrics.ObserveResolution(result.Status, result.Rotated())
	}

	return result
}

func (c *Core) resolve(ctx context.Context, creds Credentials) Result {
	var accessErr error

	if creds.AccessToken != "" {
		claims, err := c.issuer.DecodeAccess(creds.AccessToken)
		if err == nil {
			return c.resolveAccess(ctx, claims, creds.RefreshToken)
		}

		accessErr = err
		if c.logger != nil {
			c.logger.Debug("access token rejected, falling back to refresh token", "error", err)
		}
	}

	if creds.RefreshToken == "" {
		if c.logger != nil {
			c.logger.Debug("no usable credentials, continuing unauthenticated")
		}
		return Result{Status: Unauthenticated, Err: accessErr}
	}

	userID, tokens, err := c.Rotate(ctx, creds.RefreshToken)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("refresh token rotation failed, continuing unauthenticated", "error", err)
		}
		return Result{Status: Unauthenticated, Err: err}
	}

	if c.logger != nil {
		c.logger.Debug("session restored from refresh token", "user_id", userID)
	}

	return Result{Status: Refreshed, UserID: userID, Tokens: &tokens}
}

func (c *Core) resolveAccess(ctx context.Context, claims *token.AccessClaims, refreshToken string) Result {
	result := Result{Status: Authenticated, UserID: claims.UserID}

	if refreshToken == "" || !c.nearExpiry(claims) {
		return result
	}

	if c.logger != nil {
		c.logger.Debug("access token close to expiry, rotating", "user_id", claims.UserID)
	}

	if _, tokens, err := c.Rotate(ctx, refreshToken); err != nil {
		if c.logger != nil {
			c.logger.Warn("early rotation failed, keeping access token identity",
				"user_id", claims.UserID,
				"error", err)
		}
		result.Err = err
	} else {
		result.Tokens = &tokens
	}

	return result
}

// nearExpiry reports whether the access token expires within the rotation
// threshold. Tokens without exp never do.
func (c *Core) nearExpiry(claims *token.AccessClaims) bool {
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Time.Sub(c.now()) < c.rotationThreshold
}

// Rotate exchanges a refresh token for new credentials through the store.
//
// It fails with token.ErrVerification for an invalid refresh token,
// ErrUnknownUser when its user no longer exists and ErrRotation when the
// store refuses the grant.
func (c *Core) Rotate(ctx context.Context, refreshToken string) (string, TokenPair, error) {
	ctx, span := c.tracer.Start(ctx, spanRotate)
	defer span.End()

	start := time.Now()
	userID, tokens, err := c.rotate(ctx, refreshToken)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rotation failed")
	} else {
		span.SetAttributes(attribute.String("session.user_id", userID))
	}
	if c.metrics != nil {
		c.metrics.ObserveRotation(rotationOutcome(err), elapsed)
	}

	return userID, tokens, err
}

func (c *Core) rotate(ctx context.Context, refreshToken string) (string, TokenPair, error) {
	claims, err := c.issuer.DecodeRefresh(refreshToken)
	if err != nil {
		return "", TokenPair{}, fmt.Errorf("decode refresh token: %w", err)
	}

	user, err := c.store.FindUserByID(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) || (err == nil && user == nil) {
		return "", TokenPair{}, fmt.Errorf("%w: %q", ErrUnknownUser, claims.UserID)
	}
	if err != nil {
		return "", TokenPair{}, fmt.Errorf("find user %q: %w", claims.UserID, err)
	}

	var claimedExpiry time.Time
	if claims.ExpiresAt != nil {
		claimedExpiry = claims.ExpiresAt.Time
	}

	tokens, err := c.store.RotateRefreshToken(ctx, user, claims.TokenID, claimedExpiry, refreshToken)
	if err != nil {
		return "", TokenPair{}, &RotationError{
			UserID:  user.ID,
			TokenID: claims.TokenID,
			Details: err,
		}
	}

	return user.ID, tokens, nil
}

func rotationOutcome(err error) string {
	switch {
	case err == nil:
		return RotationSuccess
	case errors.Is(err, token.ErrVerification), errors.Is(err, token.ErrConfiguration):
		return RotationInvalidToken
	case errors.Is(err, ErrUnknownUser):
		return RotationUnknownUser
	case errors.Is(err, ErrRotation):
		return RotationRejected
	default:
		return RotationStoreError
	}
}
