package models

import (
	"time"

	dbtypes "github.com/etfuel/etfuel-backend/pkg/db/types"
	"github.com/google/uuid"
)

// Account is the identity provider's account record. The application only
// touches it through the identity service; everything else reads the
// parallel profile record.
type Account struct {
	UID           uuid.UUID        `gorm:"type:uuid;primaryKey;column:uid"`
	Email         string           `gorm:"type:text;not null;uniqueIndex"`
	DisplayName   string           `gorm:"column:display_name"`
	EmailVerified bool             `gorm:"column:email_verified;not null;default:false"`
	Disabled      bool             `gorm:"column:disabled;not null;default:false"`
	PasswordHash  string           `gorm:"column:password_hash;not null"`
	CustomClaims  dbtypes.ClaimSet `gorm:"type:json;column:custom_claims"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
