package models

import (
	"time"

	"github.com/etfuel/etfuel-backend/pkg/enums"
	"github.com/google/uuid"
)

// Driver is a driving member of a union, optionally linked to a login account.
type Driver struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Name          string           `gorm:"column:name;not null"`
	Email         string           `gorm:"column:email;uniqueIndex"`
	Phone         string           `gorm:"column:phone"`
	LicenseNumber string           `gorm:"column:license_number;not null"`
	LicenseExpiry *time.Time       `gorm:"column:license_expiry"`
	Status        enums.UserStatus `gorm:"column:status;not null;default:'active'"`
	OwnerUID      uuid.UUID        `gorm:"type:uuid;column:owner_uid;not null;index"`
	AccountUID    *uuid.UUID       `gorm:"type:uuid;column:account_uid"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
