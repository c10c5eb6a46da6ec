package sessionmiddleware

import (
	"errors"
	"net/http"
	"strings"
)

// Cookie and header names carrying the credentials.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	AuthHeader         = "epicAuth"
)

// TokenExtractor is a function that takes a request as input and returns
// either a token or an error. An error should only be returned if an attempt
// to specify a token was found, but the information was somehow incorrectly
// formed. In the case where a token is simply not present, this should not
// be treated as an error. An empty string should be returned in that case.
type TokenExtractor func(r *http.Request) (string, error)

// AuthHeaderTokenExtractor builds a TokenExtractor that reads the named header
// as "<scheme> <token>" and returns the second field. The scheme is not
// checked. A header without a second field yields no token.
func AuthHeaderTokenExtractor(header string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		value := r.Header.Get(header)
		if value == "" {
			return "", nil
		}

		parts := strings.Fields(value)
		if len(parts) < 2 {
			return "", nil
		}

		return parts[1], nil
	}
}

// CookieTokenExtractor builds a TokenExtractor that takes a request and
// extracts the token from the cookie using the passed in cookieName.
func CookieTokenExtractor(cookieName string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil // No cookie, then no token, so no error.
		}
		if err != nil {
			return "", err
		}

		return cookie.Value, nil
	}
}

// ParameterTokenExtractor returns a TokenExtractor that extracts
// the token from the specified query string parameter.
func ParameterTokenExtractor(param string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		return r.URL.Query().Get(param), nil
	}
}

// MultiTokenExtractor returns a TokenExtractor that runs multiple TokenExtractors
// and takes the one that does not return an empty token. If a TokenExtractor
// returns an error that error is immediately returned.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			token, err := ex(r)
			if err != nil {
				return "", err
			}

			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}

// DefaultAccessTokenExtractor reads the access_token cookie first and falls
// back to the epicAuth header.
func DefaultAccessTokenExtractor() TokenExtractor {
	return MultiTokenExtractor(
		CookieTokenExtractor(AccessTokenCookie),
		AuthHeaderTokenExtractor(AuthHeader),
	)
}

// DefaultRefreshTokenExtractor reads the refresh_token cookie.
func DefaultRefreshTokenExtractor() TokenExtractor {
	return CookieTokenExtractor(RefreshTokenCookie)
}
