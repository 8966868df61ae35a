package tenancy

import (
	"net"
	"strings"

	"github.com/mercaterra/storefront-backend/pkg/db/models"
	"github.com/mercaterra/storefront-backend/pkg/enums"
)

// RouteInfo carries the request coordinates the resolver needs to recognize
// special-cased routes.
type RouteInfo struct {
	Path   string
	Method string
}

// IsProductCreation reports whether the route creates a product, the one
// write that keeps its ownership requirements even in the dev environment.
func (r RouteInfo) IsProductCreation() bool {
	if r.Method != "POST" {
		return false
	}
	return strings.HasSuffix(strings.TrimSuffix(r.Path, "/"), "/products")
}

// Decision is the immutable outcome of tenant resolution for one request.
// Handlers read it from context; nothing downstream mutates it.
//
// Vendor is non-nil only when the effective role is a seller operating on
// their own tenant or a super admin on any tenant.
type Decision struct {
	EffectiveRole enums.Role
	Vendor        *models.Vendor
	IsDomainOwner bool
}

// stripPort reduces a Host header value to its bare domain.
func stripPort(hostname string) string {
	if host, _, err := net.SplitHostPort(hostname); err == nil {
		return host
	}
	return hostname
}
