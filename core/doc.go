/*
Package core provides the transport-agnostic session resolution logic shared
by the net/http, Gin, Echo and gRPC adapters.

Given the credentials found on a request (an access token and a refresh
token, either of which may be empty), Core.Resolve establishes the caller's
user id and, when needed, rotates the credentials through the user-record
store:

  - A valid access token identifies the caller. If it expires within the
    rotation threshold (30 minutes by default) and a refresh token is
    present, the credentials are rotated as well. A failed rotation at this
    point does not affect the identity taken from the access token.
  - A missing or invalid access token falls back to the refresh token. A
    successful rotation identifies the caller; a failed one leaves the
    request unauthenticated.

Resolve never returns an error. The outcome is an explicit Result whose
Status tells an anonymous request apart from an authenticated one; the
failure that led to an anonymous request is kept in Result.Err for logging.

Adapters store the resolved user id in the request context with SetUserID
and write Result.Tokens back to the client when a rotation took place.

# User-Record Store

Core depends on a UserStore with two operations:

	FindUserByID(ctx, userID) (*User, error)
	RotateRefreshToken(ctx, user, tokenID, claimedExpiry, rawRefreshToken) (TokenPair, error)

The store decides whether the grant named by tokenID is still alive. See the
grant package for the reference implementation.
*/
package core
