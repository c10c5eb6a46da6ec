package sessionmiddleware

import (
	"net/http"
	"time"

	"github.com/epiclo/go-session-middleware/core"
)

// DefaultCookieDomain is the domain set on token cookies outside development.
const DefaultCookieDomain = ".epiclo.io"

// Cookie lifetimes.
const (
	AccessCookieMaxAge  = time.Hour
	RefreshCookieMaxAge = 30 * 24 * time.Hour
)

// CookieWriter writes the token cookies on a response.
type CookieWriter struct {
	// Domain is left empty in development so the browser scopes the cookie to
	// the serving host.
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite

	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

// NewCookieWriter returns a CookieWriter with the production or development
// defaults.
func NewCookieWriter(development bool) *CookieWriter {
	cw := &CookieWriter{
		Domain:        DefaultCookieDomain,
		Path:          "/",
		AccessMaxAge:  AccessCookieMaxAge,
		RefreshMaxAge: RefreshCookieMaxAge,
	}
	if development {
		cw.Domain = ""
	}
	return cw
}

// AccessCookie builds the access_token cookie.
func (cw *CookieWriter) AccessCookie(value string) *http.Cookie {
	return cw.cookie(AccessTokenCookie, value, cw.AccessMaxAge)
}

// RefreshCookie builds the refresh_token cookie.
func (cw *CookieWriter) RefreshCookie(value string) *http.Cookie {
	return cw.cookie(RefreshTokenCookie, value, cw.RefreshMaxAge)
}

// SetTokenCookies attaches both tokens to the response.
func (cw *CookieWriter) SetTokenCookies(w http.ResponseWriter, tokens core.TokenPair) {
	http.SetCookie(w, cw.AccessCookie(tokens.AccessToken))
	http.SetCookie(w, cw.RefreshCookie(tokens.RefreshToken))
}

// ClearTokenCookies expires both token cookies.
func (cw *CookieWriter) ClearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c := cw.cookie(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func (cw *CookieWriter) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     cw.Path,
		Domain:   cw.Domain,
		MaxAge:   int(maxAge / time.Second),
		Expires:  expiresAt(maxAge),
		HttpOnly: true,
		Secure:   cw.Secure,
		SameSite: cw.SameSite,
	}
}

func expiresAt(maxAge time.Duration) time.Time {
	if maxAge <= 0 {
		return time.Time{}
	}
	return time.Now().Add(maxAge).UTC()
}
