package models

import (
	"time"

	"github.com/etfuel/etfuel-backend/pkg/enums"
	"github.com/google/uuid"
)

// Vehicle is a fleet vehicle registered to a union account.
type Vehicle struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey"`
	VehicleID    string              `gorm:"column:vehicle_id;not null;uniqueIndex"`
	PlateNumber  string              `gorm:"column:plate_number;not null;uniqueIndex"`
	Make         string              `gorm:"column:make"`
	Model        string              `gorm:"column:model"`
	Year         int                 `gorm:"column:year"`
	Type         enums.VehicleType   `gorm:"column:type;not null;default:'truck'"`
	FuelType     enums.FuelType      `gorm:"column:fuel_type;not null;default:'diesel'"`
	TankCapacity int                 `gorm:"column:tank_capacity"`
	Status       enums.VehicleStatus `gorm:"column:status;not null;default:'active'"`
	DriverUID    *uuid.UUID          `gorm:"type:uuid;column:driver_uid"`
	OwnerUID     uuid.UUID           `gorm:"type:uuid;column:owner_uid;not null;index"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
