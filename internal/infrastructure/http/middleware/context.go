package middleware

import (
	"context"

	"github.com/trackroom/trackroom/internal/domain"
)

type contextKey string

const principalContextKey contextKey = "principal"

// WithPrincipal injects the resolved principal into the context.
func WithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext returns the principal from the context. Requests that
// never passed through the resolver read as anonymous.
func PrincipalFromContext(ctx context.Context) domain.Principal {
	v := ctx.Value(principalContextKey)
	if v == nil {
		return domain.AnonymousPrincipal()
	}
	p, ok := v.(domain.Principal)
	if !ok {
		return domain.AnonymousPrincipal()
	}
	return p
}
