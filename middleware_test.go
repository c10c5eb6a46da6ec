package sessionmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/epiclo/go-session-middleware/core"
	"github.com/epiclo/go-session-middleware/grant"
	"github.com/epiclo/go-session-middleware/storage/memory"
	"github.com/epiclo/go-session-middleware/token"
)

const testSecret = "a-secret-long-enough-for-hs256-signing"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	clock      *fakeClock
	issuer     *token.Issuer
	grants     *grant.Service
	core       *core.Core
	middleware *SessionMiddleware
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	ctx := context.Background()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	issuer, err := token.New(testSecret, token.WithClock(clock.Now))
	require.NoError(t, err)

	store := memory.New()
	require.NoError(t, store.CreateUser(ctx, &core.User{ID: "u1", Username: "alice"}))
	require.NoError(t, store.CreateUser(ctx, &core.User{ID: "u2", Username: "bob"}))

	grants, err := grant.New(issuer, store, store)
	require.NoError(t, err)

	resolver, err := core.New(
		core.WithIssuer(issuer),
		core.WithStore(grants),
		core.WithTracer(noop.NewTracerProvider().Tracer("test")),
	)
	require.NoError(t, err)

	middleware, err := New(append([]Option{WithCore(resolver)}, opts...)...)
	require.NoError(t, err)

	return &testEnv{
		clock:      clock,
		issuer:     issuer,
		grants:     grants,
		core:       resolver,
		middleware: middleware,
	}
}

func (e *testEnv) login(t *testing.T, userID string) core.TokenPair {
	t.Helper()
	tokens, err := e.grants.IssueTokens(context.Background(), userID)
	require.NoError(t, err)
	return tokens
}

// recorded is what the wrapped handler observed.
type recorded struct {
	called bool
	userID string
	result core.Result
}

func (e *testEnv) serve(r *http.Request) (*httptest.ResponseRecorder, *recorded) {
	seen := &recorded{}
	handler := e.middleware.CheckSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.called = true
		seen.userID, _ = GetUserID(r.Context())
		seen.result, _ = GetResult(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec, seen
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("it requires a core", func(t *testing.T) {
		_, err := New()
		assert.ErrorIs(t, err, ErrCoreNil)
	})

	t.Run("it applies defaults", func(t *testing.T) {
		env := newTestEnv(t)

		assert.NotNil(t, env.middleware.accessTokenExtractor)
		assert.NotNil(t, env.middleware.refreshTokenExtractor)
		assert.NotNil(t, env.middleware.errorHandler)
		assert.Equal(t, DefaultCookieDomain, env.middleware.Cookies().Domain)
	})
}

func TestSessionMiddleware_CheckSession(t *testing.T) {
	testCases := []struct {
		name        string
		prepare     func(t *testing.T, env *testEnv, r *http.Request)
		wantUserID  string
		wantStatus  core.Status
		wantCookies bool
	}{
		{
			name:       "no tokens leaves the request anonymous",
			prepare:    func(*testing.T, *testEnv, *http.Request) {},
			wantStatus: core.Unauthenticated,
		},
		{
			name: "a fresh access token authenticates without rotation",
			prepare: func(t *testing.T, env *testEnv, r *http.Request) {
				tokens := env.login(t, "u1")
				r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tokens.AccessToken})
				r.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: tokens.RefreshToken})
			},
			wantUserID: "u1",
			wantStatus: core.Authenticated,
		},
		{
			name: "an access token close to expiry is rotated",
			prepare: func(t *testing.T, env *testEnv, r *http.Request) {
				tokens := env.login(t, "u1")
				env.clock.Advance(45 * time.Minute)
				r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tokens.AccessToken})
				r.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: tokens.RefreshToken})
			},
			wantUserID:  "u1",
			wantStatus:  core.Authenticated,
			wantCookies: true,
		},
		{
			name: "a refresh token alone restores the session",
			prepare: func(t *testing.T, env *testEnv, r *http.Request) {
				tokens := env.login(t, "u2")
				r.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: tokens.RefreshToken})
			},
			wantUserID:  "u2",
			wantStatus:  core.Refreshed,
			wantCookies: true,
		},
		{
			name: "an expired access token falls back to the refresh token",
			prepare: func(t *testing.T, env *testEnv, r *http.Request) {
				tokens := env.login(t, "u1")
				env.clock.Advance(2 * time.Hour)
				r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tokens.AccessToken})
				r.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: tokens.RefreshToken})
			},
			wantUserID:  "u1",
			wantStatus:  core.Refreshed,
			wantCookies: true,
		},
		{
			name: "the epicAuth header carries the access token",
			prepare: func(t *testing.T, env *testEnv, r *http.Request) {
				tokens := env.login(t, "u1")
				r.Header.Set(AuthHeader, "Bearer "+tokens.AccessToken)
			},
			wantUserID: "u1",
			wantStatus: core.Authenticated,
		},
		{
			name: "the cookie wins over the header",
			prepare: func(t *testing.T, env *testEnv, r *http.Request) {
				cookieTokens := env.login(t, "u1")
				headerTokens := env.login(t, "u2")
				r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: cookieTokens.AccessToken})
				r.Header.Set(AuthHeader, "Bearer "+headerTokens.AccessToken)
			},
			wantUserID: "u1",
			wantStatus: core.Authenticated,
		},
		{
			name: "a revoked grant leaves the request anonymous",
			prepare: func(t *testing.T, env *testEnv, r *http.Request) {
				tokens := env.login(t, "u1")
				require.NoError(t, env.grants.RevokeToken(context.Background(), tokens.RefreshToken))
				r.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: tokens.RefreshToken})
			},
			wantStatus: core.Unauthenticated,
		},
		{
			name: "a garbage access token without refresh token is ignored",
			prepare: func(_ *testing.T, _ *testEnv, r *http.Request) {
				r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "garbage"})
			},
			wantStatus: core.Unauthenticated,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			env := newTestEnv(t)
			r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			testCase.prepare(t, env, r)

			rec, seen := env.serve(r)

			require.True(t, seen.called, "the next handler always runs")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, testCase.wantUserID, seen.userID)
			assert.Equal(t, testCase.wantStatus, seen.result.Status)

			cookies := cookiesByName(rec)
			if !testCase.wantCookies {
				assert.Empty(t, cookies)
				return
			}

			require.Contains(t, cookies, AccessTokenCookie)
			require.Contains(t, cookies, RefreshTokenCookie)
			assert.Equal(t, 3600, cookies[AccessTokenCookie].MaxAge)
			assert.Equal(t, 30*24*3600, cookies[RefreshTokenCookie].MaxAge)
			assert.True(t, cookies[AccessTokenCookie].HttpOnly)

			access, err := env.issuer.DecodeAccess(cookies[AccessTokenCookie].Value)
			require.NoError(t, err)
			assert.Equal(t, testCase.wantUserID, access.UserID)
		})
	}
}

func TestSessionMiddleware_ExclusionUrls(t *testing.T) {
	env := newTestEnv(t, WithExclusionUrls([]string{"/health"}))
	tokens := env.login(t, "u1")

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tokens.AccessToken})

	_, seen := env.serve(r)
	assert.True(t, seen.called)
	assert.Empty(t, seen.userID)
}

func TestSessionMiddleware_DevelopmentCookies(t *testing.T) {
	env := newTestEnv(t, WithDevelopment(true))
	tokens := env.login(t, "u1")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: tokens.RefreshToken})

	rec, _ := env.serve(r)
	for _, c := range rec.Result().Cookies() {
		assert.Empty(t, c.Domain, c.Name)
	}
}

func TestWithResult(t *testing.T) {
	ctx := WithResult(context.Background(), core.Result{Status: core.Unauthenticated})
	assert.False(t, HasUserID(ctx))

	ctx = WithResult(context.Background(), core.Result{Status: core.Refreshed, UserID: "u1"})
	userID, err := GetUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	result, ok := GetResult(ctx)
	require.True(t, ok)
	assert.Equal(t, core.Refreshed, result.Status)
}
