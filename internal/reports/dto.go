package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
)

// ReportDTO is the transport shape for a station's daily fuel report.
type ReportDTO struct {
	ID           uuid.UUID          `json:"id"`
	StationUID   uuid.UUID          `json:"stationUid"`
	ReportDate   time.Time          `json:"reportDate"`
	FuelVolume   decimal.Decimal    `json:"fuelVolume"`
	Revenue      decimal.Decimal    `json:"revenue"`
	VehicleCount int                `json:"vehicleCount"`
	Notes        string             `json:"notes,omitempty"`
	Status       enums.ReportStatus `json:"status"`
	FiledByUID   uuid.UUID          `json:"filedByUid"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// ReportPage is one cursor page of reports.
type ReportPage struct {
	Reports    []ReportDTO `json:"reports"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

// FromModel converts a report row into its transport shape.
func FromModel(report *models.Report) *ReportDTO {
	if report == nil {
		return nil
	}
	return &ReportDTO{
		ID:           report.ID,
		StationUID:   report.StationUID,
		ReportDate:   report.ReportDate,
		FuelVolume:   report.FuelVolume,
		Revenue:      report.Revenue,
		VehicleCount: report.VehicleCount,
		Notes:        report.Notes,
		Status:       report.Status,
		FiledByUID:   report.FiledByUID,
		CreatedAt:    report.CreatedAt,
		UpdatedAt:    report.UpdatedAt,
	}
}

// FromModels converts a slice of report rows.
func FromModels(rows []models.Report) []ReportDTO {
	out := make([]ReportDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
