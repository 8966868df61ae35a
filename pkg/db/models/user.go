package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercaterra/storefront-backend/pkg/enums"
)

// User represents the canonical identity entity. Role is the durable stored
// role; the tenancy layer derives per-request effective roles from it but
// never writes it back.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	FirstName    string     `gorm:"column:first_name;not null"`
	LastName     string     `gorm:"column:last_name;not null"`
	Role         enums.Role `gorm:"column:role;type:text;not null;default:'buyer'"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	IsDeletable  bool       `gorm:"column:is_deletable;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
