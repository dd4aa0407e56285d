package models

import (
	"time"

	"github.com/etfuel/etfuel-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User is the application-owned profile record, keyed by the account uid.
// It carries its own password hash next to the provider's copy; the login
// path verifies against this one.
type User struct {
	UID          uuid.UUID        `gorm:"type:uuid;primaryKey;column:uid"`
	Email        string           `gorm:"type:text;not null;uniqueIndex"`
	Name         string           `gorm:"column:name;not null"`
	PasswordHash string           `gorm:"column:password_hash"`
	Role         enums.Role       `gorm:"column:role;not null;default:'union'"`
	Status       enums.UserStatus `gorm:"column:status;not null;default:'active'"`
	Permissions  pq.StringArray   `gorm:"type:text[];column:permissions"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
