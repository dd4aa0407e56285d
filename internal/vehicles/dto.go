package vehicles

import (
	"time"

	"github.com/google/uuid"

	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
)

// VehicleDTO is the transport shape for a vehicle record.
type VehicleDTO struct {
	ID           uuid.UUID           `json:"id"`
	VehicleID    string              `json:"vehicleId"`
	PlateNumber  string              `json:"licensePlate"`
	Make         string              `json:"brand,omitempty"`
	Model        string              `json:"model,omitempty"`
	Year         int                 `json:"year,omitempty"`
	Type         enums.VehicleType   `json:"vehicleType"`
	FuelType     enums.FuelType      `json:"fuelType"`
	TankCapacity int                 `json:"tankCapacity,omitempty"`
	Status       enums.VehicleStatus `json:"status"`
	DriverUID    *uuid.UUID          `json:"driverUid,omitempty"`
	OwnerUID     uuid.UUID           `json:"ownerUid"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// FromModel converts a vehicle row into its transport shape.
func FromModel(vehicle *models.Vehicle) *VehicleDTO {
	if vehicle == nil {
		return nil
	}
	return &VehicleDTO{
		ID:           vehicle.ID,
		VehicleID:    vehicle.VehicleID,
		PlateNumber:  vehicle.PlateNumber,
		Make:         vehicle.Make,
		Model:        vehicle.Model,
		Year:         vehicle.Year,
		Type:         vehicle.Type,
		FuelType:     vehicle.FuelType,
		TankCapacity: vehicle.TankCapacity,
		Status:       vehicle.Status,
		DriverUID:    vehicle.DriverUID,
		OwnerUID:     vehicle.OwnerUID,
		CreatedAt:    vehicle.CreatedAt,
		UpdatedAt:    vehicle.UpdatedAt,
	}
}

// FromModels converts a slice of vehicle rows.
func FromModels(rows []models.Vehicle) []VehicleDTO {
	out := make([]VehicleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
