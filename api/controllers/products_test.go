package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercaterra/storefront-backend/api/middleware"
	"github.com/mercaterra/storefront-backend/internal/products"
	"github.com/mercaterra/storefront-backend/internal/tenancy"
	"github.com/mercaterra/storefront-backend/pkg/config"
	"github.com/mercaterra/storefront-backend/pkg/db/models"
	"github.com/mercaterra/storefront-backend/pkg/enums"
	"github.com/mercaterra/storefront-backend/pkg/pagination"
)

type stubProductRepo struct {
	created   *products.CreateProductDTO
	published []models.Product
	all       []models.Product
	lastQuery products.ListQuery
}

func (s *stubProductRepo) Create(_ context.Context, dto products.CreateProductDTO) (*models.Product, error) {
	s.created = &dto
	model := dto.ToModel()
	model.ID = uuid.New()
	return model, nil
}

func (s *stubProductRepo) ListByVendor(_ context.Context, q products.ListQuery) ([]models.Product, error) {
	s.lastQuery = q
	return s.all, nil
}

func (s *stubProductRepo) ListPublishedByVendor(_ context.Context, q products.ListQuery) ([]models.Product, error) {
	s.lastQuery = q
	return s.published, nil
}

func testTenancyConfig() config.TenancyConfig {
	return config.TenancyConfig{Environment: "production", DevDomain: "localhost"}
}

type stubDomainVendorFinder struct {
	vendor *models.Vendor
}

func (s *stubDomainVendorFinder) FindByDomain(_ context.Context, _ string) (*models.Vendor, error) {
	if s.vendor == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.vendor, nil
}

func TestProductsCreateRequiresVendorDecision(t *testing.T) {
	handler := ProductsCreate(&stubProductRepo{}, nil)

	req := httptest.NewRequest("POST", "/api/products", strings.NewReader(`{"name":"x","price":"1.00"}`))
	ctx := middleware.WithDecision(req.Context(), &tenancy.Decision{EffectiveRole: enums.RoleBuyer})
	rec := httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestProductsCreateSuccess(t *testing.T) {
	vendor := &models.Vendor{ID: uuid.New(), Domain: "a.shop.com"}
	repo := &stubProductRepo{}
	handler := ProductsCreate(repo, nil)

	body := `{"name":"Alpine Tent","description":"3 season","price":"129.99","is_published":true}`
	req := httptest.NewRequest("POST", "/api/products", strings.NewReader(body))
	ctx := middleware.WithDecision(req.Context(), &tenancy.Decision{
		EffectiveRole: enums.RoleSeller,
		Vendor:        vendor,
		IsDomainOwner: true,
	})
	rec := httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.created == nil || repo.created.VendorID != vendor.ID {
		t.Fatal("expected product created for decision vendor")
	}
	if !repo.created.Price.Equal(decimal.RequireFromString("129.99")) {
		t.Fatalf("unexpected price %s", repo.created.Price)
	}
}

func TestProductsCreateRejectsBadPrice(t *testing.T) {
	vendor := &models.Vendor{ID: uuid.New()}
	handler := ProductsCreate(&stubProductRepo{}, nil)

	for _, price := range []string{"abc", "-5", ""} {
		body, _ := json.Marshal(map[string]any{"name": "x", "price": price})
		req := httptest.NewRequest("POST", "/api/products", strings.NewReader(string(body)))
		ctx := middleware.WithDecision(req.Context(), &tenancy.Decision{EffectiveRole: enums.RoleSeller, Vendor: vendor})
		rec := httptest.NewRecorder()
		handler(rec, req.WithContext(ctx))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("price %q: expected 400, got %d", price, rec.Code)
		}
	}
}

func TestProductsListOwnerSeesDrafts(t *testing.T) {
	vendor := &models.Vendor{ID: uuid.New(), Domain: "a.shop.com"}
	repo := &stubProductRepo{all: []models.Product{
		{ID: uuid.New(), VendorID: vendor.ID, Name: "draft", IsPublished: false},
		{ID: uuid.New(), VendorID: vendor.ID, Name: "live", IsPublished: true},
	}}
	handler := ProductsList(repo, &stubDomainVendorFinder{}, testTenancyConfig(), nil)

	req := httptest.NewRequest("GET", "http://a.shop.com/api/products", nil)
	ctx := middleware.WithDecision(req.Context(), &tenancy.Decision{
		EffectiveRole: enums.RoleSeller,
		Vendor:        vendor,
		IsDomainOwner: true,
	})
	rec := httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data struct {
			Products []products.ProductDTO `json:"products"`
			Cursor   string                `json:"cursor"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Products) != 2 {
		t.Fatalf("expected full catalog, got %d items", len(envelope.Data.Products))
	}
	if repo.lastQuery.VendorID != vendor.ID {
		t.Fatal("expected query scoped to the decision vendor")
	}
}

func TestProductsListGuestSeesPublishedOnly(t *testing.T) {
	vendor := &models.Vendor{ID: uuid.New(), Domain: "a.shop.com"}
	repo := &stubProductRepo{published: []models.Product{
		{ID: uuid.New(), VendorID: vendor.ID, Name: "live", IsPublished: true},
	}}
	handler := ProductsList(repo, &stubDomainVendorFinder{vendor: vendor}, testTenancyConfig(), nil)

	req := httptest.NewRequest("GET", "http://a.shop.com:8443/api/products", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data struct {
			Products []products.ProductDTO `json:"products"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Products) != 1 || envelope.Data.Products[0].Name != "live" {
		t.Fatal("expected published storefront view")
	}
}

func TestProductsListPaginates(t *testing.T) {
	vendor := &models.Vendor{ID: uuid.New(), Domain: "a.shop.com"}
	now := time.Now().UTC()
	// Three rows back from the repo against a page size of two means the
	// third is the lookahead row that becomes the next cursor.
	repo := &stubProductRepo{all: []models.Product{
		{ID: uuid.New(), VendorID: vendor.ID, Name: "c", CreatedAt: now},
		{ID: uuid.New(), VendorID: vendor.ID, Name: "b", CreatedAt: now.Add(-time.Minute)},
		{ID: uuid.New(), VendorID: vendor.ID, Name: "a", CreatedAt: now.Add(-2 * time.Minute)},
	}}
	handler := ProductsList(repo, &stubDomainVendorFinder{}, testTenancyConfig(), nil)

	req := httptest.NewRequest("GET", "http://a.shop.com/api/products?limit=2", nil)
	ctx := middleware.WithDecision(req.Context(), &tenancy.Decision{
		EffectiveRole: enums.RoleSeller,
		Vendor:        vendor,
		IsDomainOwner: true,
	})
	rec := httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.lastQuery.Limit != 3 {
		t.Fatalf("expected lookahead limit 3, got %d", repo.lastQuery.Limit)
	}
	var envelope struct {
		Data struct {
			Products []products.ProductDTO `json:"products"`
			Cursor   string                `json:"cursor"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Products) != 2 {
		t.Fatalf("expected 2 items, got %d", len(envelope.Data.Products))
	}
	if envelope.Data.Cursor == "" {
		t.Fatal("expected a next cursor")
	}
	cursor, err := pagination.ParseCursor(envelope.Data.Cursor)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if cursor.ID != repo.all[2].ID {
		t.Fatal("expected cursor to point at the lookahead row")
	}
}

func TestProductsListRejectsBadCursor(t *testing.T) {
	vendor := &models.Vendor{ID: uuid.New(), Domain: "a.shop.com"}
	handler := ProductsList(&stubProductRepo{}, &stubDomainVendorFinder{}, testTenancyConfig(), nil)

	req := httptest.NewRequest("GET", "http://a.shop.com/api/products?cursor=%21%21", nil)
	ctx := middleware.WithDecision(req.Context(), &tenancy.Decision{
		EffectiveRole: enums.RoleSeller,
		Vendor:        vendor,
		IsDomainOwner: true,
	})
	rec := httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProductsListDevDomainEmptyCatalog(t *testing.T) {
	finder := &stubDomainVendorFinder{}
	handler := ProductsList(&stubProductRepo{}, finder, testTenancyConfig(), nil)

	req := httptest.NewRequest("GET", "http://localhost:3000/api/products", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			Products []products.ProductDTO `json:"products"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Products) != 0 {
		t.Fatalf("expected empty catalog, got %d items", len(envelope.Data.Products))
	}
}

func TestProductsListUnknownStore(t *testing.T) {
	handler := ProductsList(&stubProductRepo{}, &stubDomainVendorFinder{}, testTenancyConfig(), nil)

	req := httptest.NewRequest("GET", "http://nobody.shop.com/api/products", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
