package sessiongrpc

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

// Metadata keys carrying tokens. gRPC lowercases every key.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	AuthKey         = "epicauth"
)

// TokenExtractor reads a token from the incoming call context. An empty
// string with a nil error means no token was sent.
type TokenExtractor func(ctx context.Context) (string, error)

// MetadataTokenExtractor reads the first value of the given metadata key.
func MetadataTokenExtractor(key string) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return "", nil
		}

		values := md.Get(key)
		if len(values) == 0 {
			return "", nil
		}
		return strings.TrimSpace(values[0]), nil
	}
}

// AuthMetadataTokenExtractor reads "<scheme> <token>" from the given key and
// returns the token. The scheme is not checked.
func AuthMetadataTokenExtractor(key string) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return "", nil
		}

		values := md.Get(key)
		if len(values) == 0 {
			return "", nil
		}

		parts := strings.Fields(values[0])
		if len(parts) < 2 {
			return "", nil
		}
		return parts[1], nil
	}
}

// MultiTokenExtractor returns the first non-empty token found.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		for _, ex := range extractors {
			token, err := ex(ctx)
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

// DefaultAccessTokenExtractor reads access_token, then epicauth.
func DefaultAccessTokenExtractor() TokenExtractor {
	return MultiTokenExtractor(
		MetadataTokenExtractor(AccessTokenKey),
		AuthMetadataTokenExtractor(AuthKey),
	)
}

// DefaultRefreshTokenExtractor reads refresh_token.
func DefaultRefreshTokenExtractor() TokenExtractor {
	return MetadataTokenExtractor(RefreshTokenKey)
}
