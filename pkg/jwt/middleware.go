package jwt

import (
	"context"
	"net/http"
	"strings"
)

// TokenExtractorFunc defines a function that extracts a token from an HTTP request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// VerifyFunc validates a raw token and returns the request context enriched
// with whatever the caller derives from it (typically parsed claims).
type VerifyFunc func(ctx context.Context, token string) (context.Context, error)

// ErrorFunc writes the response for a rejected request.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// MiddlewareConfig configures JWT middleware behavior.
type MiddlewareConfig struct {
	Verify    VerifyFunc         // required
	Extractor TokenExtractorFunc // defaults to BearerTokenExtractor
	OnError   ErrorFunc          // defaults to a plain 401
}

// Middleware rejects requests whose token is missing or fails Verify.
func Middleware(config MiddlewareConfig) func(next http.Handler) http.Handler {
	if config.Extractor == nil {
		config.Extractor = BearerTokenExtractor
	}
	if config.OnError == nil {
		config.OnError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := config.Extractor(r)
			if err != nil {
				config.OnError(w, r, err)
				return
			}

			ctx, err := config.Verify(r.Context(), tokenString)
			if err != nil {
				config.OnError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerTokenExtractor extracts tokens from "Authorization: Bearer <token>" headers.
func BearerTokenExtractor(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrInvalidToken
	}

	return token, nil
}

// HeaderTokenExtractor creates a token extractor for custom headers.
func HeaderTokenExtractor(headerName string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		token := r.Header.Get(headerName)
		if token == "" {
			return "", ErrInvalidToken
		}
		return token, nil
	}
}
