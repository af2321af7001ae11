package auth

import "context"

type claimsContextKey struct{}

// WithClaims stores verified access claims for downstream handlers.
func WithClaims(ctx context.Context, claims *AccessClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the claims stored by WithClaims, or nil.
func ClaimsFromContext(ctx context.Context) *AccessClaims {
	claims, _ := ctx.Value(claimsContextKey{}).(*AccessClaims)
	return claims
}

type tempClaimsContextKey struct{}

// WithTempToken stores a raw temp token for handlers behind the step-up middleware.
func WithTempToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tempClaimsContextKey{}, token)
}

func TempTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tempClaimsContextKey{}).(string)
	return token
}
