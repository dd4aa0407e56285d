package drivers

import (
	"time"

	"github.com/google/uuid"

	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
)

// DriverDTO is the transport shape for a driver record.
type DriverDTO struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Email         string           `json:"email,omitempty"`
	Phone         string           `json:"phone,omitempty"`
	LicenseNumber string           `json:"licenseNumber"`
	LicenseExpiry *time.Time       `json:"licenseExpiry,omitempty"`
	Status        enums.UserStatus `json:"status"`
	OwnerUID      uuid.UUID        `json:"ownerUid"`
	AccountUID    *uuid.UUID       `json:"accountUid,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// FromModel converts a driver row into its transport shape.
func FromModel(driver *models.Driver) *DriverDTO {
	if driver == nil {
		return nil
	}
	return &DriverDTO{
		ID:            driver.ID,
		Name:          driver.Name,
		Email:         driver.Email,
		Phone:         driver.Phone,
		LicenseNumber: driver.LicenseNumber,
		LicenseExpiry: driver.LicenseExpiry,
		Status:        driver.Status,
		OwnerUID:      driver.OwnerUID,
		AccountUID:    driver.AccountUID,
		CreatedAt:     driver.CreatedAt,
		UpdatedAt:     driver.UpdatedAt,
	}
}

// FromModels converts a slice of driver rows.
func FromModels(rows []models.Driver) []DriverDTO {
	out := make([]DriverDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
