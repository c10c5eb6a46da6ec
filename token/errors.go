package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors for the three failure kinds of the issuer.
var (
	// ErrConfiguration is returned when the signing secret is not set.
	ErrConfiguration = errors.New("token: signing secret is not configured")

	// ErrSigning is returned when a token could not be signed.
	ErrSigning = errors.New("token: signing failed")

	// ErrVerification is returned when a presented token is malformed,
	// carries a bad signature, has expired or was minted by another issuer.
	ErrVerification = errors.New("token: verification failed")
)

// Error codes carried by *Error.
const (
	CodeSecretMissing     = "secret_missing"
	CodeSigningFailed     = "signing_failed"
	CodeTokenMalformed    = "token_malformed"
	CodeTokenExpired      = "token_expired"
	CodeTokenNotYetValid  = "token_not_yet_valid"
	CodeInvalidSignature  = "invalid_signature"
	CodeInvalidAlgorithm  = "invalid_algorithm"
	CodeInvalidIssuer     = "invalid_issuer"
	CodeInvalidClaims     = "invalid_claims"
	CodeWrongKind         = "wrong_token_kind"
	CodeTokenUnverifiable = "token_unverifiable"
)

// Error wraps an issuer failure with a machine-readable code. It matches its
// kind (ErrConfiguration, ErrSigning or ErrVerification) with errors.Is and
// unwraps to the underlying library error.
type Error struct {
	// Kind is one of the package sentinel errors.
	Kind error

	// Code is a machine-readable error code (e.g. "token_expired").
	Code string

	// Message is a human-readable error message.
	Message string

	// Details contains the underlying error, if any.
	Details error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Details
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func newError(kind error, code, message string, details error) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Details: details,
	}
}

var errSecretMissing = newError(ErrConfiguration, CodeSecretMissing, "signing secret is missing", nil)

// verificationError maps a golang-jwt parse error to a coded *Error.
func verificationError(err error) *Error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return newError(ErrVerification, CodeTokenMalformed, "token is malformed", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return newError(ErrVerification, CodeInvalidSignature, "token signature is invalid", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return newError(ErrVerification, CodeTokenExpired, "token has expired", err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return newError(ErrVerification, CodeTokenNotYetValid, "token is not valid yet", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return newError(ErrVerification, CodeInvalidIssuer, "token issuer is invalid", err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return newError(ErrVerification, CodeInvalidAlgorithm, "token cannot be verified", err)
	case errors.Is(err, jwt.ErrTokenInvalidClaims):
		return newError(ErrVerification, CodeInvalidClaims, "token claims are invalid", err)
	default:
		return newError(ErrVerification, CodeTokenUnverifiable, "token could not be verified", err)
	}
}

func wrongKindError(want, got string) *Error {
	return newError(ErrVerification, CodeWrongKind, "token is not a "+want, fmt.Errorf("subject %q", got))
}
