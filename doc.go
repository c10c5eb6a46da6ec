/*
Package sessionmiddleware provides net/http middleware that resolves the
caller's identity from short-lived access tokens and longer-lived refresh
tokens.

The middleware follows the Core-Adapter pattern: package core holds the
resolution algorithm and this package is the HTTP transport adapter. The
framework/gin, framework/echo and framework/grpc packages adapt the same
core to those stacks.

# Quick Start

	issuer, err := token.New(os.Getenv("SECRET_KEY"))
	if err != nil {
	    log.Fatal(err)
	}

	store := memory.New()
	grants, err := grant.New(issuer, store, store)
	if err != nil {
	    log.Fatal(err)
	}

	resolver, err := core.New(
	    core.WithIssuer(issuer),
	    core.WithStore(grants),
	)
	if err != nil {
	    log.Fatal(err)
	}

	middleware, err := sessionmiddleware.New(
	    sessionmiddleware.WithCore(resolver),
	)
	if err != nil {
	    log.Fatal(err)
	}

	http.Handle("/api/", middleware.CheckSession(apiHandler))
	http.ListenAndServe(":8080", nil)

# Credentials

The access token is read from the access_token cookie, or failing that from
the second field of the epicAuth header:

	epicAuth: Bearer eyJhbGciOiJIUzI1NiIs...

The refresh token is only read from the refresh_token cookie. Both sources
can be replaced with WithAccessTokenExtractor and WithRefreshTokenExtractor.

# Anonymous Requests

CheckSession never rejects a request. Handlers that need a user read it from
the context:

	func meHandler(w http.ResponseWriter, r *http.Request) {
	    userID, err := sessionmiddleware.GetUserID(r.Context())
	    if err != nil {
	        http.Error(w, "Unauthorized", http.StatusUnauthorized)
	        return
	    }
	    fmt.Fprintf(w, "Hello, %s!", userID)
	}

or are wrapped with RequireSession, which answers 401 through the configured
ErrorHandler.

# Rotation

When the access token is missing, invalid or expires within 30 minutes and a
refresh token is present, the credentials are rotated through the grant
store. The new tokens are written as HttpOnly cookies before the next handler
runs:

  - access_token, Max-Age 1 hour
  - refresh_token, Max-Age 30 days

Both cookies carry Domain=.epiclo.io unless WithDevelopment(true) is set.

# Observability

WithLogger accepts any log/slog compatible logger; NewLogrusLogger adapts
logrus. Spans and metrics are produced by core, see core.WithTracer and
core.WithMetrics. PrometheusMetrics implements core.Metrics.
*/
package sessionmiddleware
