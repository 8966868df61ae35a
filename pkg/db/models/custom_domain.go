package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomDomain maps an externally registered hostname onto a vendor. A vendor
// can hold several rows here but only the one referenced by
// Vendor.CustomDomainID is active.
type CustomDomain struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Domain     string     `gorm:"column:domain;type:text;not null;uniqueIndex"`
	VendorID   uuid.UUID  `gorm:"column:vendor_id;type:uuid;not null;index"`
	VerifiedAt *time.Time `gorm:"column:verified_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
