package vendors

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaterra/storefront-backend/pkg/db/models"
)

// Repository handles vendor (tenant) persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to vendor operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a vendor by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// FindByOwner returns the vendor owned by the provided user. A user owns at
// most one vendor.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// FindByDomain resolves the vendor owning a hostname: first by the vendor's
// default subdomain, then through the custom domain mapping.
func (r *Repository) FindByDomain(ctx context.Context, domain string) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).Where("domain = ?", domain).First(&vendor).Error
	if err == nil {
		return &vendor, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var custom models.CustomDomain
	if err := r.db.WithContext(ctx).Where("domain = ?", domain).First(&custom).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, custom.VendorID)
}
