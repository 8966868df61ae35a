package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Vendor represents a seller's isolated storefront (tenant). Domain is the
// default platform subdomain; CustomDomainID points at the active custom
// domain when one is attached.
type Vendor struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID        uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;uniqueIndex"`
	Name           string         `gorm:"column:name;not null"`
	Description    *string        `gorm:"column:description"`
	Domain         string         `gorm:"column:domain;type:text;not null;uniqueIndex"`
	CustomDomainID *uuid.UUID     `gorm:"column:custom_domain_id;type:uuid"`
	Categories     pq.StringArray `gorm:"column:categories;type:text[]"`
	LogoURL        *string        `gorm:"column:logo_url"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
