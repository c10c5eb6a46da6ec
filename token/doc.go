/*
Package token issues and verifies the signed tokens used by the session
middleware.

Tokens are HS256 JWTs signed with a single process-wide secret. An Issuer is
built once at startup from that secret and is then safe for concurrent use.

# Basic Usage

	issuer, err := token.New(os.Getenv("SECRET_KEY"))
	if err != nil {
	    log.Fatal(err)
	}

	signed, err := issuer.Create(
	    &token.AccessClaims{UserID: user.ID},
	    token.Subject(token.SubjectAccess),
	    token.ExpiresIn(time.Hour),
	)

	claims, err := issuer.DecodeAccess(signed)
	if errors.Is(err, token.ErrVerification) {
	    // bad signature, malformed, expired or foreign issuer
	}

# Defaults

Unless overridden, tokens carry the issuer ".epiclo.io" and expire after
7 days. Passing ExpiresIn(0) or NoExpiry() signs a token without an exp
claim. That token never fails verification because of its age.

# Missing Secret

New refuses an empty secret with ErrConfiguration. Tools that only need the
rest of the configuration (schema migrations, builds) can pass
WithAllowMissingSecret; the resulting Issuer fails every Create and Decode
call with ErrConfiguration instead of blocking.
*/
package token
