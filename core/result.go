package core

// Status is the outcome of a resolution.
type Status int

const (
	// Unauthenticated means no identity could be established.
	Unauthenticated Status = iota

	// Authenticated means the identity came from a valid access token.
	Authenticated

	// Refreshed means the identity came from a successful rotation of the
	// refresh token.
	Refreshed
)

// String returns the label used in logs, spans and metrics.
func (s Status) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Refreshed:
		return "refreshed"
	default:
		return "unauthenticated"
	}
}

// Credentials are the tokens found on an incoming request.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// TokenPair is a freshly issued access token and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Result is returned by Core.Resolve.
type Result struct {
	Status Status

	// UserID is empty when Status is Unauthenticated.
	UserID string

	// Tokens is set when a rotation succeeded and must be sent back to the
	// client.
	Tokens *TokenPair

	// Err is the failure swallowed during resolution, if any.
	Err error
}

// Authenticated reports whether an identity was established.
func (r Result) Authenticated() bool {
	return r.Status != Unauthenticated && r.UserID != ""
}

// Rotated reports whether new credentials were issued.
func (r Result) Rotated() bool {
	return r.Tokens != nil
}
