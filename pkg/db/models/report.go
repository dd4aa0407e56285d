package models

import (
	"time"

	"github.com/etfuel/etfuel-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Report is a daily fuel report filed by a station operator.
type Report struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey"`
	StationUID   uuid.UUID          `gorm:"type:uuid;column:station_uid;not null;index"`
	ReportDate   time.Time          `gorm:"column:report_date;not null;index"`
	FuelVolume   decimal.Decimal    `gorm:"type:numeric(12,3);column:fuel_volume;not null"`
	Revenue      decimal.Decimal    `gorm:"type:numeric(12,2);column:revenue;not null"`
	VehicleCount int                `gorm:"column:vehicle_count;not null;default:0"`
	Notes        string             `gorm:"column:notes"`
	Status       enums.ReportStatus `gorm:"column:status;not null;default:'pending'"`
	FiledByUID   uuid.UUID          `gorm:"type:uuid;column:filed_by_uid;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
