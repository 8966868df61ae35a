package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/mercaterra/storefront-backend/internal/identity"
	"github.com/mercaterra/storefront-backend/internal/tenancy"
	"github.com/mercaterra/storefront-backend/pkg/db/models"
	"github.com/mercaterra/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercaterra/storefront-backend/pkg/errors"
)

type stubTenantResolver struct {
	decision *tenancy.Decision
	err      error

	hostname string
	route    tenancy.RouteInfo
}

func (s *stubTenantResolver) Resolve(_ context.Context, _ *identity.Identity, hostname string, route tenancy.RouteInfo) (*tenancy.Decision, error) {
	s.hostname = hostname
	s.route = route
	return s.decision, s.err
}

func TestTenantAccessStoresDecision(t *testing.T) {
	vendor := &models.Vendor{ID: uuid.New(), Domain: "a.shop.com"}
	resolver := &stubTenantResolver{
		decision: &tenancy.Decision{EffectiveRole: enums.RoleSeller, Vendor: vendor, IsDomainOwner: true},
	}
	mw := TenantAccess(resolver, nil, nil)

	var seen *tenancy.Decision
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = DecisionFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "http://a.shop.com/api/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.Vendor == nil || seen.Vendor.ID != vendor.ID {
		t.Fatal("expected decision in context")
	}
	if resolver.hostname != "a.shop.com" {
		t.Fatalf("expected host header used, got %q", resolver.hostname)
	}
	if resolver.route.Path != "/api/products" || resolver.route.Method != "GET" {
		t.Fatalf("unexpected route %+v", resolver.route)
	}
}

func TestTenantAccessDomainQueryOverride(t *testing.T) {
	resolver := &stubTenantResolver{decision: &tenancy.Decision{}}
	mw := TenantAccess(resolver, nil, nil)
	handler := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest("GET", "http://api.internal/api/products?domain=b.shop.com", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if resolver.hostname != "b.shop.com" {
		t.Fatalf("expected query override used, got %q", resolver.hostname)
	}
}

func TestTenantAccessShortCircuitsOnError(t *testing.T) {
	cases := []struct {
		code   pkgerrors.Code
		status int
	}{
		{pkgerrors.CodeDomainNotSpecified, http.StatusBadRequest},
		{pkgerrors.CodeSellerAccessRequired, http.StatusForbidden},
		{pkgerrors.CodeStoreNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		resolver := &stubTenantResolver{err: pkgerrors.New(tc.code, "nope")}
		mw := TenantAccess(resolver, nil, nil)
		handler := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		}))

		req := httptest.NewRequest("GET", "http://a.shop.com/api/products", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.code, tc.status, rec.Code)
		}
	}
}
