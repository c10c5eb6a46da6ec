package sessionmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiclo/go-session-middleware/core"
)

func TestNewCookieWriter(t *testing.T) {
	testCases := []struct {
		name        string
		development bool
		wantDomain  string
	}{
		{name: "production", wantDomain: ".epiclo.io"},
		{name: "development", development: true, wantDomain: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			cw := NewCookieWriter(testCase.development)

			want := &http.Cookie{
				Name:     AccessTokenCookie,
				Value:    "access",
				Path:     "/",
				Domain:   testCase.wantDomain,
				MaxAge:   3600,
				HttpOnly: true,
			}
			got := cw.AccessCookie("access")
			if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(http.Cookie{}, "Expires")); diff != "" {
				t.Errorf("access cookie mismatch (-want +got):\n%s", diff)
			}

			refresh := cw.RefreshCookie("refresh")
			assert.Equal(t, RefreshTokenCookie, refresh.Name)
			assert.Equal(t, 30*24*3600, refresh.MaxAge)
			assert.Equal(t, testCase.wantDomain, refresh.Domain)
			assert.True(t, refresh.HttpOnly)
		})
	}
}

func TestCookieWriter_SetTokenCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	NewCookieWriter(false).SetTokenCookies(rec, core.TokenPair{AccessToken: "a", RefreshToken: "r"})

	cookies := cookiesByName(rec)
	require.Len(t, cookies, 2)
	assert.Equal(t, "a", cookies[AccessTokenCookie].Value)
	assert.Equal(t, "r", cookies[RefreshTokenCookie].Value)
	assert.Equal(t, "epiclo.io", cookies[AccessTokenCookie].Domain)
}

func TestCookieWriter_ClearTokenCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	NewCookieWriter(true).ClearTokenCookies(rec)

	cookies := cookiesByName(rec)
	require.Len(t, cookies, 2)
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		assert.Empty(t, cookies[name].Value)
		assert.Equal(t, -1, cookies[name].MaxAge, name)
	}
}
