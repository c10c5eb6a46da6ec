package sessiongrpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/epiclo/go-session-middleware/core"
	"github.com/epiclo/go-session-middleware/grant"
	"github.com/epiclo/go-session-middleware/storage/memory"
	"github.com/epiclo/go-session-middleware/token"
)

const (
	testSecret = "a-secret-long-enough-for-hs256-signing"
	testMethod = "/epiclo.Test/Call"
)

func newTestCore(t *testing.T) (*core.Core, *grant.Service) {
	t.Helper()

	issuer, err := token.New(testSecret)
	require.NoError(t, err)

	store := memory.New()
	require.NoError(t, store.CreateUser(context.Background(), &core.User{ID: "u1", Username: "alice"}))

	grants, err := grant.New(issuer, store, store)
	require.NoError(t, err)

	resolver, err := core.New(core.WithIssuer(issuer), core.WithStore(grants))
	require.NoError(t, err)

	return resolver, grants
}

func TestNew(t *testing.T) {
	resolver, _ := newTestCore(t)

	testCases := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "missing core", wantErr: ErrCoreNil},
		{name: "nil core", opts: []Option{WithCore(nil)}, wantErr: ErrCoreNil},
		{name: "nil access extractor", opts: []Option{WithCore(resolver), WithAccessTokenExtractor(nil)}, wantErr: ErrTokenExtractorNil},
		{name: "nil refresh extractor", opts: []Option{WithCore(resolver), WithRefreshTokenExtractor(nil)}, wantErr: ErrTokenExtractorNil},
		{name: "no excluded methods", opts: []Option{WithCore(resolver), WithExcludedMethods()}, wantErr: ErrExcludedMethodsEmpty},
		{name: "nil logger", opts: []Option{WithCore(resolver), WithLogger(nil)}, wantErr: ErrLoggerNil},
		{name: "valid", opts: []Option{WithCore(resolver)}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			i, err := New(testCase.opts...)
			if testCase.wantErr != nil {
				assert.ErrorIs(t, err, testCase.wantErr)
				assert.Nil(t, i)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, i)
		})
	}
}

func TestExtractors(t *testing.T) {
	testCases := []struct {
		name        string
		md          metadata.MD
		wantAccess  string
		wantRefresh string
	}{
		{name: "no metadata"},
		{name: "access token key", md: metadata.Pairs(AccessTokenKey, "a1"), wantAccess: "a1"},
		{name: "auth key", md: metadata.Pairs(AuthKey, "Bearer a2"), wantAccess: "a2"},
		{name: "auth key without scheme", md: metadata.Pairs(AuthKey, "a3")},
		{name: "access key wins", md: metadata.Pairs(AccessTokenKey, "a1", AuthKey, "Bearer a2"), wantAccess: "a1"},
		{name: "refresh token key", md: metadata.Pairs(RefreshTokenKey, "r1"), wantRefresh: "r1"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ctx := context.Background()
			if testCase.md != nil {
				ctx = metadata.NewIncomingContext(ctx, testCase.md)
			}

			access, err := DefaultAccessTokenExtractor()(ctx)
			require.NoError(t, err)
			assert.Equal(t, testCase.wantAccess, access)

			refresh, err := DefaultRefreshTokenExtractor()(ctx)
			require.NoError(t, err)
			assert.Equal(t, testCase.wantRefresh, refresh)
		})
	}
}

func TestUnaryServerInterceptor(t *testing.T) {
	resolver, grants := newTestCore(t)
	tokens, err := grants.IssueTokens(context.Background(), "u1")
	require.NoError(t, err)

	var sent metadata.MD
	i, err := New(
		WithCore(resolver),
		WithExcludedMethods("/epiclo.Test/Public"),
		withHeaderSetter(func(_ context.Context, md metadata.MD) error {
			sent = md
			return nil
		}),
	)
	require.NoError(t, err)

	testCases := []struct {
		name       string
		method     string
		md         metadata.MD
		wantUserID string
		wantSent   bool
	}{
		{name: "anonymous call continues", method: testMethod},
		{name: "access token", method: testMethod, md: metadata.Pairs(AccessTokenKey, tokens.AccessToken), wantUserID: "u1"},
		{name: "refresh token rotates", method: testMethod, md: metadata.Pairs(RefreshTokenKey, tokens.RefreshToken), wantUserID: "u1", wantSent: true},
		{name: "garbage token", method: testMethod, md: metadata.Pairs(AccessTokenKey, "garbage")},
		{name: "excluded method", method: "/epiclo.Test/Public", md: metadata.Pairs(AccessTokenKey, tokens.AccessToken)},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			sent = nil
			ctx := context.Background()
			if testCase.md != nil {
				ctx = metadata.NewIncomingContext(ctx, testCase.md)
			}

			var gotUserID string
			handler := func(ctx context.Context, req any) (any, error) {
				gotUserID, _ = GetUserID(ctx)
				return "ok", nil
			}

			resp, err := i.UnaryServerInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: testCase.method}, handler)
			require.NoError(t, err)
			assert.Equal(t, "ok", resp)
			assert.Equal(t, testCase.wantUserID, gotUserID)

			if testCase.wantSent {
				require.NotNil(t, sent)
				assert.NotEmpty(t, sent.Get(AccessTokenKey))
				assert.NotEmpty(t, sent.Get(RefreshTokenKey))
			} else {
				assert.Nil(t, sent)
			}
		})
	}
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx    context.Context
	header metadata.MD
}

func (s *fakeServerStream) Context() context.Context { return s.ctx }

func (s *fakeServerStream) SetHeader(md metadata.MD) error {
	s.header = metadata.Join(s.header, md)
	return nil
}

func TestStreamServerInterceptor(t *testing.T) {
	resolver, grants := newTestCore(t)
	tokens, err := grants.IssueTokens(context.Background(), "u1")
	require.NoError(t, err)

	i, err := New(WithCore(resolver))
	require.NoError(t, err)

	ss := &fakeServerStream{
		ctx: metadata.NewIncomingContext(context.Background(), metadata.Pairs(RefreshTokenKey, tokens.RefreshToken)),
	}

	var gotUserID string
	handler := func(srv any, stream grpc.ServerStream) error {
		gotUserID, _ = GetUserID(stream.Context())
		result, ok := core.GetResult(stream.Context())
		require.True(t, ok)
		assert.Equal(t, core.Refreshed, result.Status)
		return nil
	}

	err = i.StreamServerInterceptor()(nil, ss, &grpc.StreamServerInfo{FullMethod: testMethod}, handler)
	require.NoError(t, err)
	assert.Equal(t, "u1", gotUserID)
	assert.Len(t, ss.header.Get(AccessTokenKey), 1)
	assert.Len(t, ss.header.Get(RefreshTokenKey), 1)
}

func TestRequireSession(t *testing.T) {
	handler := func(ctx context.Context, req any) (any, error) { return "ok", nil }
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	_, err := UnaryRequireSession()(context.Background(), nil, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	resp, err := UnaryRequireSession()(core.SetUserID(context.Background(), "u1"), nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	streamHandler := func(srv any, ss grpc.ServerStream) error { return nil }
	err = StreamRequireSession()(nil, &fakeServerStream{ctx: context.Background()}, &grpc.StreamServerInfo{FullMethod: testMethod}, streamHandler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestInterceptor_OverBufconn(t *testing.T) {
	resolver, grants := newTestCore(t)
	tokens, err := grants.IssueTokens(context.Background(), "u1")
	require.NoError(t, err)

	i, err := New(WithCore(resolver))
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(i.UnaryServerInterceptor(), UnaryRequireSession()))
	healthpb.RegisterHealthServer(server, health.NewServer())
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := healthpb.NewHealthClient(conn)

	t.Run("anonymous call is rejected", func(t *testing.T) {
		_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("refresh token rotates and returns headers", func(t *testing.T) {
		ctx := metadata.AppendToOutgoingContext(context.Background(), RefreshTokenKey, tokens.RefreshToken)

		var header metadata.MD
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{}, grpc.Header(&header))
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
		assert.Len(t, header.Get(AccessTokenKey), 1)
		assert.Len(t, header.Get(RefreshTokenKey), 1)
	})
}
