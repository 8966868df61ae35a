package controllers

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercaterra/storefront-backend/api/middleware"
	"github.com/mercaterra/storefront-backend/api/responses"
	"github.com/mercaterra/storefront-backend/api/validators"
	"github.com/mercaterra/storefront-backend/internal/products"
	"github.com/mercaterra/storefront-backend/pkg/config"
	"github.com/mercaterra/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercaterra/storefront-backend/pkg/errors"
	"github.com/mercaterra/storefront-backend/pkg/logger"
	pkgpagination "github.com/mercaterra/storefront-backend/pkg/pagination"
)

type productRepo interface {
	Create(ctx context.Context, dto products.CreateProductDTO) (*models.Product, error)
	ListByVendor(ctx context.Context, q products.ListQuery) ([]models.Product, error)
	ListPublishedByVendor(ctx context.Context, q products.ListQuery) ([]models.Product, error)
}

type domainVendorFinder interface {
	FindByDomain(ctx context.Context, domain string) (*models.Vendor, error)
}

func bareDomain(hostname string) string {
	if host, _, err := net.SplitHostPort(hostname); err == nil {
		return host
	}
	return hostname
}

type productListResponse struct {
	Products []products.ProductDTO `json:"products"`
	Cursor   string                `json:"cursor,omitempty"`
}

// catalogPage parses cursor pagination inputs from the query string. The
// returned limit is the page size before the lookahead buffer is applied.
func catalogPage(r *http.Request) (products.ListQuery, int, error) {
	var page pkgpagination.Params
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return products.ListQuery{}, 0, pkgerrors.New(pkgerrors.CodeValidation, "limit must be an integer")
		}
		page.Limit = n
	}
	page.Cursor = r.URL.Query().Get("cursor")

	q := products.ListQuery{Limit: pkgpagination.LimitWithBuffer(page.Limit)}
	if page.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(page.Cursor)
		if err != nil {
			return products.ListQuery{}, 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		q.Cursor = cursor
	}
	return q, pkgpagination.NormalizeLimit(page.Limit), nil
}

func catalogResponse(rows []models.Product, limit int) productListResponse {
	next := ""
	if len(rows) > limit {
		next = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}
	return productListResponse{Products: products.FromModels(rows), Cursor: next}
}

type createProductRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Price       string  `json:"price" validate:"required"`
	IsPublished bool    `json:"is_published"`
}

// ProductsCreate inserts a product into the caller's own catalog. The tenant
// decision must carry a vendor: only a seller on their own tenant (or the
// dev-environment equivalent) gets one.
func ProductsCreate(repo productRepo, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decision := middleware.DecisionFromContext(r.Context())
		if decision == nil || decision.Vendor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeSellerAccessRequired, "seller access required"))
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := decimal.NewFromString(body.Price)
		if err != nil || price.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price must be a non-negative decimal"))
			return
		}

		product, err := repo.Create(r.Context(), products.CreateProductDTO{
			VendorID:    decision.Vendor.ID,
			Name:        body.Name,
			Description: body.Description,
			Price:       price,
			IsPublished: body.IsPublished,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, products.FromModel(product))
	}
}

// ProductsList returns the catalog for the current tenant. A seller on
// their own domain sees the whole catalog, drafts included; everyone else
// sees the published storefront view of the domain's vendor.
func ProductsList(repo productRepo, vendors domainVendorFinder, tcfg config.TenancyConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		q, limit, err := catalogPage(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		// A vendor on the decision means privileged access to this tenant:
		// the owning seller or a super admin. Both see drafts.
		if decision := middleware.DecisionFromContext(ctx); decision != nil && decision.Vendor != nil {
			q.VendorID = decision.Vendor.ID
			items, err := repo.ListByVendor(ctx, q)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products"))
				return
			}
			responses.WriteSuccess(w, catalogResponse(items, limit))
			return
		}

		domain := bareDomain(middleware.RequestHostname(r))

		// On the dev domain tenant resolution is bypassed, so there is no
		// storefront vendor to look up. Serve an empty catalog rather than
		// a not-found.
		if domain == tcfg.DevDomain {
			responses.WriteSuccess(w, productListResponse{Products: products.FromModels(nil)})
			return
		}

		vendor, err := vendors.FindByDomain(ctx, domain)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeStoreNotFound, "store not found"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve vendor"))
			return
		}

		q.VendorID = vendor.ID
		items, err := repo.ListPublishedByVendor(ctx, q)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products"))
			return
		}
		responses.WriteSuccess(w, catalogResponse(items, limit))
	}
}
