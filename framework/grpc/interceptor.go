package sessiongrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/epiclo/go-session-middleware/core"
)

// ErrMissingUserID is returned when a call requiring a session has none.
var ErrMissingUserID = errors.New("no user id found in context")

// Interceptor resolves sessions for gRPC calls. Like the HTTP middleware it
// never rejects a call; rotated tokens are sent back as response headers.
type Interceptor struct {
	core                  *core.Core
	accessTokenExtractor  TokenExtractor
	refreshTokenExtractor TokenExtractor
	excludedMethods       map[string]struct{}
	logger                core.Logger
	setHeader             func(ctx context.Context, md metadata.MD) error
}

// New creates an Interceptor. WithCore is required.
func New(opts ...Option) (*Interceptor, error) {
	i := &Interceptor{
		accessTokenExtractor:  DefaultAccessTokenExtractor(),
		refreshTokenExtractor: DefaultRefreshTokenExtractor(),
		setHeader:             grpc.SetHeader,
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, invalidOption(err)
		}
	}

	if i.core == nil {
		return nil, invalidOption(ErrCoreNil)
	}

	return i, nil
}

// resolve returns the context to hand to the handler and the rotated
// tokens, if any, that must be sent back.
func (i *Interceptor) resolve(ctx context.Context, method string) (context.Context, *core.TokenPair) {
	if _, ok := i.excludedMethods[method]; ok {
		if i.logger != nil {
			i.logger.Debug("skipping session resolution for excluded method", "method", method)
		}
		return ctx, nil
	}

	result := i.core.Resolve(ctx, core.Credentials{
		AccessToken:  i.extract(ctx, i.accessTokenExtractor, method),
		RefreshToken: i.extract(ctx, i.refreshTokenExtractor, method),
	})

	ctx = core.SetResult(ctx, result)
	if result.Authenticated() {
		ctx = core.SetUserID(ctx, result.UserID)
	}
	return ctx, result.Tokens
}

func (i *Interceptor) extract(ctx context.Context, extractor TokenExtractor, method string) string {
	token, err := extractor(ctx)
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("failed to extract token from metadata", "method", method, "error", err)
		}
		return ""
	}
	return token
}

func (i *Interceptor) sendTokens(method string, tokens *core.TokenPair, set func(metadata.MD) error) {
	if tokens == nil {
		return
	}
	md := metadata.Pairs(
		AccessTokenKey, tokens.AccessToken,
		RefreshTokenKey, tokens.RefreshToken,
	)
	if err := set(md); err != nil && i.logger != nil {
		i.logger.Error("failed to send rotated tokens", "method", method, "error", err)
	}
}

// UnaryServerInterceptor returns a unary interceptor resolving the session.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		sessionCtx, tokens := i.resolve(ctx, info.FullMethod)
		i.sendTokens(info.FullMethod, tokens, func(md metadata.MD) error {
			return i.setHeader(ctx, md)
		})
		return handler(sessionCtx, req)
	}
}

// StreamServerInterceptor returns a stream interceptor resolving the session.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		sessionCtx, tokens := i.resolve(ss.Context(), info.FullMethod)
		i.sendTokens(info.FullMethod, tokens, ss.SetHeader)
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: sessionCtx})
	}
}

// UnaryRequireSession rejects unary calls without a resolved user with
// codes.Unauthenticated. Chain it after UnaryServerInterceptor.
func UnaryRequireSession() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !core.HasUserID(ctx) {
			return nil, status.Error(codes.Unauthenticated, ErrMissingUserID.Error())
		}
		return handler(ctx, req)
	}
}

// StreamRequireSession is the streaming counterpart of UnaryRequireSession.
func StreamRequireSession() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if !core.HasUserID(ss.Context()) {
			return status.Error(codes.Unauthenticated, ErrMissingUserID.Error())
		}
		return handler(srv, ss)
	}
}

// wrappedServerStream overrides the stream context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

// GetUserID returns the user id resolved for the call.
func GetUserID(ctx context.Context) (string, error) {
	return core.GetUserID(ctx)
}
