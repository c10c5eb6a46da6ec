package sessiongrpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/metadata"

	"github.com/epiclo/go-session-middleware/core"
)

var (
	ErrCoreNil              = errors.New("core cannot be nil")
	ErrTokenExtractorNil    = errors.New("token extractor cannot be nil")
	ErrExcludedMethodsEmpty = errors.New("excluded methods cannot be empty")
	ErrLoggerNil            = errors.New("logger cannot be nil")
)

// Option configures the Interceptor.
type Option func(*Interceptor) error

// WithCore sets the resolver used for every call (REQUIRED).
func WithCore(c *core.Core) Option {
	return func(i *Interceptor) error {
		if c == nil {
			return ErrCoreNil
		}
		i.core = c
		return nil
	}
}

// WithAccessTokenExtractor sets the function reading the access token.
//
// Default: access_token metadata, then epicauth
func WithAccessTokenExtractor(e TokenExtractor) Option {
	return func(i *Interceptor) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		i.accessTokenExtractor = e
		return nil
	}
}

// WithRefreshTokenExtractor sets the function reading the refresh token.
//
// Default: refresh_token metadata
func WithRefreshTokenExtractor(e TokenExtractor) Option {
	return func(i *Interceptor) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		i.refreshTokenExtractor = e
		return nil
	}
}

// WithExcludedMethods skips resolution for the given full method names,
// for example "/grpc.health.v1.Health/Check".
func WithExcludedMethods(methods ...string) Option {
	return func(i *Interceptor) error {
		if len(methods) == 0 {
			return ErrExcludedMethodsEmpty
		}
		i.excludedMethods = make(map[string]struct{}, len(methods))
		for _, m := range methods {
			i.excludedMethods[m] = struct{}{}
		}
		return nil
	}
}

// WithLogger sets an optional logger.
func WithLogger(logger core.Logger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return ErrLoggerNil
		}
		i.logger = logger
		return nil
	}
}

func withHeaderSetter(set func(ctx context.Context, md metadata.MD) error) Option {
	return func(i *Interceptor) error {
		i.setHeader = set
		return nil
	}
}

func invalidOption(err error) error {
	return fmt.Errorf("invalid option: %w", err)
}
