package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mercaterra/storefront-backend/api/responses"
	"github.com/mercaterra/storefront-backend/internal/identity"
	"github.com/mercaterra/storefront-backend/internal/tenancy"
	pkgerrors "github.com/mercaterra/storefront-backend/pkg/errors"
	"github.com/mercaterra/storefront-backend/pkg/logger"
	"github.com/mercaterra/storefront-backend/pkg/metrics"
)

type tenantResolver interface {
	Resolve(ctx context.Context, ident *identity.Identity, hostname string, route tenancy.RouteInfo) (*tenancy.Decision, error)
}

// TenantAccess resolves the request's hostname to a tenant and stores the
// resulting decision in the context. It runs after Authenticated on
// protected routes and standalone on public storefront routes, where the
// identity is simply absent.
//
// The hostname comes from the Host header; a `domain` query parameter
// overrides it for non-browser callers and tests.
func TenantAccess(resolver tenantResolver, logg *logger.Logger, access *metrics.AccessMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hostname := RequestHostname(r)
			ident := IdentityFromContext(r.Context())

			route := tenancy.RouteInfo{Path: r.URL.Path, Method: r.Method}
			decision, err := resolver.Resolve(r.Context(), ident, hostname, route)
			if err != nil {
				outcome := "error"
				if typed := pkgerrors.As(err); typed != nil {
					outcome = string(typed.Code())
				}
				access.IncTenantDecision(outcome)
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			access.IncTenantDecision(decisionOutcome(decision))

			ctx := WithDecision(r.Context(), decision)
			if logg != nil {
				if decision.EffectiveRole != "" {
					ctx = logg.WithEffectiveRole(ctx, decision.EffectiveRole.String())
				}
				if decision.Vendor != nil {
					ctx = logg.WithVendorID(ctx, decision.Vendor.ID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestHostname extracts the hostname the tenant layer should resolve.
func RequestHostname(r *http.Request) string {
	if override := strings.TrimSpace(r.URL.Query().Get("domain")); override != "" {
		return override
	}
	return strings.TrimSpace(r.Host)
}

func decisionOutcome(decision *tenancy.Decision) string {
	switch {
	case decision.Vendor != nil && decision.IsDomainOwner:
		return "owner"
	case decision.Vendor != nil:
		return "vendor_attached"
	case decision.EffectiveRole == "":
		return "anonymous"
	default:
		return "passthrough"
	}
}
