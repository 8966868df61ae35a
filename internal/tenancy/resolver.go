package tenancy

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaterra/storefront-backend/internal/identity"
	"github.com/mercaterra/storefront-backend/pkg/config"
	"github.com/mercaterra/storefront-backend/pkg/db/models"
	"github.com/mercaterra/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercaterra/storefront-backend/pkg/errors"
)

type vendorFinder interface {
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Vendor, error)
	FindByDomain(ctx context.Context, domain string) (*models.Vendor, error)
}

// Resolver decides tenant access and the effective role for each request.
type Resolver struct {
	vendors vendorFinder
	cfg     config.TenancyConfig
}

// ResolverParams bundles the Resolver's dependencies.
type ResolverParams struct {
	VendorRepo vendorFinder
	Config     config.TenancyConfig
}

// NewResolver constructs the tenant resolver.
func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.VendorRepo == nil {
		return nil, stderrors.New("vendor repository required")
	}
	return &Resolver{vendors: params.VendorRepo, cfg: params.Config}, nil
}

// Resolve maps the request's hostname to an owning vendor and reconciles the
// caller's role against it. The returned Decision is the only output; the
// caller's durable role and session state are never touched here.
//
// A seller browsing a tenant they do not own is downgraded to buyer for this
// request only. That is a success outcome: sellers experience other stores
// exactly as a guest would.
func (r *Resolver) Resolve(ctx context.Context, ident *identity.Identity, hostname string, route RouteInfo) (*Decision, error) {
	if hostname == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDomainNotSpecified, "domain not specified")
	}
	domain := stripPort(hostname)

	if environmentFor(r.cfg, domain) == EnvironmentSingleTenantDev {
		return r.resolveDev(ctx, ident, route)
	}

	domainVendor, err := r.vendors.FindByDomain(ctx, domain)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStoreNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve vendor by domain")
	}

	if ident == nil {
		// Guest catalog browsing.
		return &Decision{}, nil
	}

	if ident.User.Role == enums.RoleSuperAdmin {
		return &Decision{EffectiveRole: enums.RoleSuperAdmin, Vendor: domainVendor}, nil
	}

	if ident.IsSeller() {
		own, err := r.ownVendor(ctx, ident)
		if err != nil {
			return nil, err
		}
		if own != nil && own.ID == domainVendor.ID {
			return &Decision{EffectiveRole: enums.RoleSeller, Vendor: own, IsDomainOwner: true}, nil
		}
		return &Decision{EffectiveRole: enums.RoleBuyer}, nil
	}

	return &Decision{EffectiveRole: ident.User.Role}, nil
}

// resolveDev handles the single-tenant environment. Tenant checks are
// skipped, except product creation which still needs a vendor to own the
// product.
func (r *Resolver) resolveDev(ctx context.Context, ident *identity.Identity, route RouteInfo) (*Decision, error) {
	if !route.IsProductCreation() {
		var role enums.Role
		if ident != nil {
			role = ident.User.Role
		}
		return &Decision{EffectiveRole: role}, nil
	}

	if ident == nil || !ident.IsSeller() {
		return nil, pkgerrors.New(pkgerrors.CodeSellerAccessRequired, "seller access required")
	}
	own, err := r.ownVendor(ctx, ident)
	if err != nil {
		return nil, err
	}
	if own == nil {
		return nil, pkgerrors.New(pkgerrors.CodeVendorAccountNotFound, "vendor account not found")
	}
	return &Decision{EffectiveRole: enums.RoleSeller, Vendor: own, IsDomainOwner: true}, nil
}

// Describe is the read-only counterpart of Resolve, backing "who am I right
// now" reads. An unresolvable hostname yields no domain vendor instead of an
// error, and nothing is ever attached or mutated.
func (r *Resolver) Describe(ctx context.Context, ident *identity.Identity, hostname string) (*Decision, error) {
	if ident == nil {
		return &Decision{}, nil
	}

	domain := stripPort(hostname)
	dev := domain == "" || environmentFor(r.cfg, domain) == EnvironmentSingleTenantDev

	var domainVendor *models.Vendor
	if !dev {
		vendor, err := r.vendors.FindByDomain(ctx, domain)
		if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve vendor by domain")
		}
		domainVendor = vendor
	}

	var callerVendor *models.Vendor
	if ident.IsSeller() {
		vendor, err := r.ownVendor(ctx, ident)
		if err != nil {
			return nil, err
		}
		callerVendor = vendor
	}

	owner := domainVendor != nil && callerVendor != nil && domainVendor.ID == callerVendor.ID

	role := ident.User.Role
	if ident.OriginalRole == enums.RoleSeller && !dev {
		if owner {
			role = enums.RoleSeller
		} else {
			role = enums.RoleBuyer
		}
	}

	return &Decision{EffectiveRole: role, IsDomainOwner: owner}, nil
}

// ownVendor looks up the caller's owned vendor. A missing row is not an
// error at this layer; callers decide what absence means for their step.
func (r *Resolver) ownVendor(ctx context.Context, ident *identity.Identity) (*models.Vendor, error) {
	vendor, err := r.vendors.FindByOwner(ctx, ident.User.ID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve vendor by owner")
	}
	return vendor, nil
}
