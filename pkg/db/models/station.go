package models

import (
	"time"

	"github.com/etfuel/etfuel-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Station is a managed fuel/charging station.
type Station struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey"`
	StationID     string              `gorm:"column:station_id;not null;uniqueIndex"`
	Name          string              `gorm:"column:name;not null"`
	Code          string              `gorm:"column:code"`
	Type          enums.StationType   `gorm:"column:type;not null;default:'charging'"`
	Address       string              `gorm:"column:address"`
	City          string              `gorm:"column:city"`
	State         string              `gorm:"column:state"`
	ZipCode       string              `gorm:"column:zip_code"`
	Country       string              `gorm:"column:country"`
	ContactPerson string              `gorm:"column:contact_person"`
	ContactPhone  string              `gorm:"column:contact_phone"`
	ContactEmail  string              `gorm:"column:contact_email"`
	Capacity      int                 `gorm:"column:capacity;not null;default:10"`
	Status        enums.StationStatus `gorm:"column:status;not null;default:'active'"`
	OpensAt       string              `gorm:"column:opens_at;default:'08:00'"`
	ClosesAt      string              `gorm:"column:closes_at;default:'20:00'"`
	Latitude      *decimal.Decimal    `gorm:"type:numeric(9,6);column:latitude"`
	Longitude     *decimal.Decimal    `gorm:"type:numeric(9,6);column:longitude"`
	OwnerUID      uuid.UUID           `gorm:"type:uuid;column:owner_uid;not null;index"`
	AccountUID    *uuid.UUID          `gorm:"type:uuid;column:account_uid"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
