package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaterra/storefront-backend/pkg/db/models"
	pkgpagination "github.com/mercaterra/storefront-backend/pkg/pagination"
)

// ListQuery narrows a catalog read to one vendor with keyset bounds.
type ListQuery struct {
	VendorID uuid.UUID
	Limit    int
	Cursor   *pkgpagination.Cursor
}

// Repository handles product persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to product operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new product and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateProductDTO) (*models.Product, error) {
	product := dto.ToModel()
	product.ID = uuid.New()
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// ListByVendor returns the vendor's products, drafts included, newest first.
func (r *Repository) ListByVendor(ctx context.Context, q ListQuery) ([]models.Product, error) {
	return r.list(ctx, q, false)
}

// ListPublishedByVendor returns the storefront view of a vendor's catalog.
func (r *Repository) ListPublishedByVendor(ctx context.Context, q ListQuery) ([]models.Product, error) {
	return r.list(ctx, q, true)
}

func (r *Repository) list(ctx context.Context, q ListQuery, publishedOnly bool) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("vendor_id = ?", q.VendorID)

	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if q.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(q.Limit)

	var rows []models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
