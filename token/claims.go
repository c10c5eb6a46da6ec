package token

import "github.com/golang-jwt/jwt/v5"

// Subjects used for the two token kinds.
const (
	SubjectAccess  = "access_token"
	SubjectRefresh = "refresh_token"
)

// Claims is implemented by every payload the Issuer can sign. The issuer
// fills iat, exp, iss and sub through the registered-claims block before
// signing.
type Claims interface {
	jwt.Claims
	Registered() *jwt.RegisteredClaims
}

// AccessClaims is the payload of a short-lived access token.
type AccessClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Registered returns the registered-claims block.
func (c *AccessClaims) Registered() *jwt.RegisteredClaims {
	return &c.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. TokenID names the
// server-side grant that keeps the token alive.
type RefreshClaims struct {
	UserID  string `json:"user_id"`
	TokenID string `json:"token_id"`
	jwt.RegisteredClaims
}

// Registered returns the registered-claims block.
func (c *RefreshClaims) Registered() *jwt.RegisteredClaims {
	return &c.RegisteredClaims
}
