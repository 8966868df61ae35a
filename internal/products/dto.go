package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercaterra/storefront-backend/pkg/db/models"
)

// ProductDTO is the transport shape for catalog items.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	IsPublished bool            `json:"is_published"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateProductDTO holds the data required by the repo to persist a new product.
type CreateProductDTO struct {
	VendorID    uuid.UUID
	Name        string
	Description *string
	Price       decimal.Decimal
	IsPublished bool
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}

	return &ProductDTO{
		ID:          p.ID,
		VendorID:    p.VendorID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func FromModels(items []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}

func (c CreateProductDTO) ToModel() *models.Product {
	return &models.Product{
		VendorID:    c.VendorID,
		Name:        c.Name,
		Description: c.Description,
		Price:       c.Price,
		IsPublished: c.IsPublished,
	}
}
