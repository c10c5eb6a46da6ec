/*
Package sessiongrpc resolves sessions for gRPC servers.

	interceptor, err := sessiongrpc.New(sessiongrpc.WithCore(resolver))
	if err != nil {
	    log.Fatal(err)
	}

	server := grpc.NewServer(
	    grpc.ChainUnaryInterceptor(
	        interceptor.UnaryServerInterceptor(),
	        sessiongrpc.UnaryRequireSession(),
	    ),
	)

Tokens are read from the access_token and refresh_token metadata keys, or
from "epicauth: Bearer <token>". Rotated tokens are returned as response
headers under the same keys.
*/
package sessiongrpc
