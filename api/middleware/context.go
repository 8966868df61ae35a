package middleware

import (
	"context"

	"github.com/mercaterra/storefront-backend/internal/identity"
	"github.com/mercaterra/storefront-backend/internal/tenancy"
)

type contextKey string

const (
	ctxIdentity contextKey = "identity"
	ctxDecision contextKey = "tenant_decision"
)

// WithIdentity injects the resolved identity into the context.
func WithIdentity(ctx context.Context, ident *identity.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, ident)
}

// IdentityFromContext returns the authenticated identity, or nil on public
// routes.
func IdentityFromContext(ctx context.Context) *identity.Identity {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxIdentity).(*identity.Identity); ok {
		return v
	}
	return nil
}

// WithDecision injects the tenant decision into the context.
func WithDecision(ctx context.Context, decision *tenancy.Decision) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxDecision, decision)
}

// DecisionFromContext returns the tenant decision for this request, or nil
// when no tenant middleware ran.
func DecisionFromContext(ctx context.Context) *tenancy.Decision {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxDecision).(*tenancy.Decision); ok {
		return v
	}
	return nil
}
