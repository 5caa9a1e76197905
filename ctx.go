package auth

import (
	"context"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-session-auth/middleware/jwtware"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithClaimsContext sets the TokenClaims in the given context
func WithClaimsContext(r context.Context, claims *TokenClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the TokenClaims from the standard context
func GetClaims(ctx context.Context) (*TokenClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*TokenClaims)
	return raw, ok
}

// GetRouterClaims extracts the claims the JWT middleware stored in the
// router context.
func GetRouterClaims(ctx router.Context, key string) (*TokenClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}

	claims := jwtware.ClaimsFromContext(ctx, key)
	if claims == nil {
		return nil, false
	}

	return &TokenClaims{
		RegisteredClaims: claims.RegisteredClaims,
		Username:         claims.Username,
		SessionUUID:      claims.SessionUUID,
		TokenType:        claims.TokenType,
	}, true
}
