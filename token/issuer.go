package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Defaults applied by New.
const (
	DefaultIssuer    = ".epiclo.io"
	DefaultExpiresIn = 7 * 24 * time.Hour
)

// Issuer signs and verifies tokens with a shared HMAC secret.
type Issuer struct {
	secret             []byte
	issuer             string
	expiresIn          time.Duration
	leeway             time.Duration
	now                func() time.Time
	allowMissingSecret bool

	parser *jwt.Parser
}

// New builds an Issuer for the given secret.
//
// An empty secret is a configuration error unless WithAllowMissingSecret is
// passed.
func New(secret string, opts ...Option) (*Issuer, error) {
	i := &Issuer{
		issuer:    DefaultIssuer,
		expiresIn: DefaultExpiresIn,
		now:       time.Now,
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if secret == "" {
		if !i.allowMissingSecret {
			return nil, errSecretMissing
		}
	} else {
		i.secret = []byte(secret)
	}

	i.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithLeeway(i.leeway),
		jwt.WithTimeFunc(i.now),
	)

	return i, nil
}

// Configured reports whether the Issuer holds a signing secret.
func (i *Issuer) Configured() bool {
	return len(i.secret) > 0
}

// Now returns the current time as seen by the Issuer's clock.
func (i *Issuer) Now() time.Time {
	return i.now()
}

// Create signs claims. The registered-claims block of claims is overwritten
// with iat, iss, sub and exp according to the Issuer defaults and opts.
func (i *Issuer) Create(claims Claims, opts ...SignOption) (string, error) {
	if !i.Configured() {
		return "", errSecretMissing
	}
	if claims == nil {
		return "", newError(ErrSigning, CodeSigningFailed, "claims cannot be nil", nil)
	}

	o := signOptions{
		issuer:    i.issuer,
		expiresIn: i.expiresIn,
	}
	for _, opt := range opts {
		opt(&o)
	}

	now := i.now()
	rc := claims.Registered()
	rc.IssuedAt = jwt.NewNumericDate(now)
	rc.Issuer = o.issuer
	if o.subject != "" {
		rc.Subject = o.subject
	}
	rc.ExpiresAt = nil
	if o.expiresIn > 0 {
		rc.ExpiresAt = jwt.NewNumericDate(now.Add(o.expiresIn))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", newError(ErrSigning, CodeSigningFailed, "failed to sign token", err)
	}

	return signed, nil
}

// Decode verifies tokenString and unmarshals its payload into claims.
func (i *Issuer) Decode(tokenString string, claims jwt.Claims) error {
	if !i.Configured() {
		return errSecretMissing
	}

	if _, err := i.parser.ParseWithClaims(tokenString, claims, i.keyFunc); err != nil {
		return verificationError(err)
	}

	return nil
}

// DecodeAccess verifies an access token. A token whose sub names the
// refresh kind is rejected.
func (i *Issuer) DecodeAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.Decode(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Subject == SubjectRefresh {
		return nil, wrongKindError(SubjectAccess, claims.Subject)
	}
	return claims, nil
}

// DecodeRefresh verifies a refresh token. It must carry a token id and its
// sub must not name the access kind.
func (i *Issuer) DecodeRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.Decode(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Subject == SubjectAccess || claims.TokenID == "" {
		return nil, wrongKindError(SubjectRefresh, claims.Subject)
	}
	return claims, nil
}

func (i *Issuer) keyFunc(*jwt.Token) (any, error) {
	return i.secret, nil
}
