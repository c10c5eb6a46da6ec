/*
Package grant is the reference user-record store for the session resolver.

Every login opens a Grant, a server-side record whose id travels in the
refresh token as the token_id claim. A refresh token only rotates while its
grant exists, belongs to the token's user, is not disabled and has not
expired. Logout disables the grant.

Rotation always issues a new one hour access token. The refresh token is
re-minted under the same token_id, and the grant extended by 30 days, only
when the presented refresh token has less than 15 days left; otherwise the
presented token is handed back unchanged.

Grants and users are persisted through Repository and UserRepository. The
storage/memory, storage/redis and storage/postgres packages implement both.
*/
package grant
