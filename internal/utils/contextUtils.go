package utils

import "context"

type contextKey string

const (
	claimsContextKey contextKey = "claims"
	tokenContextKey  contextKey = "token"
)

// WithAuth stores the verified claims and the raw bearer token on ctx.
func WithAuth(ctx context.Context, claims *Claims, token string) context.Context {
	ctx = context.WithValue(ctx, claimsContextKey, claims)
	return context.WithValue(ctx, tokenContextKey, token)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok && token != ""
}
