package middleware

import (
	"context"

	pkgauth "github.com/etfuel/etfuel-backend/pkg/auth"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// WithPrincipal injects the authenticated caller into the context.
func WithPrincipal(ctx context.Context, principal pkgauth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, principal)
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (pkgauth.Principal, bool) {
	if ctx == nil {
		return pkgauth.Principal{}, false
	}
	principal, ok := ctx.Value(ctxPrincipal).(pkgauth.Principal)
	return principal, ok
}
