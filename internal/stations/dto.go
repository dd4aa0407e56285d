package stations

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
)

// StationDTO is the transport shape for a station record.
type StationDTO struct {
	ID            uuid.UUID           `json:"id"`
	StationID     string              `json:"stationId"`
	Name          string              `json:"name"`
	Code          string              `json:"stationCode,omitempty"`
	Type          enums.StationType   `json:"type"`
	Address       string              `json:"address,omitempty"`
	City          string              `json:"city,omitempty"`
	State         string              `json:"state,omitempty"`
	ZipCode       string              `json:"zipCode,omitempty"`
	Country       string              `json:"country,omitempty"`
	ContactPerson string              `json:"contactPerson,omitempty"`
	ContactPhone  string              `json:"contactPhone,omitempty"`
	ContactEmail  string              `json:"contactEmail,omitempty"`
	Capacity      int                 `json:"capacity"`
	Status        enums.StationStatus `json:"status"`
	OpensAt       string              `json:"opensAt"`
	ClosesAt      string              `json:"closesAt"`
	Latitude      *decimal.Decimal    `json:"latitude,omitempty"`
	Longitude     *decimal.Decimal    `json:"longitude,omitempty"`
	OwnerUID      uuid.UUID           `json:"ownerUid"`
	AccountUID    *uuid.UUID          `json:"accountUid,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// FromModel converts a station row into its transport shape.
func FromModel(station *models.Station) *StationDTO {
	if station == nil {
		return nil
	}
	return &StationDTO{
		ID:            station.ID,
		StationID:     station.StationID,
		Name:          station.Name,
		Code:          station.Code,
		Type:          station.Type,
		Address:       station.Address,
		City:          station.City,
		State:         station.State,
		ZipCode:       station.ZipCode,
		Country:       station.Country,
		ContactPerson: station.ContactPerson,
		ContactPhone:  station.ContactPhone,
		ContactEmail:  station.ContactEmail,
		Capacity:      station.Capacity,
		Status:        station.Status,
		OpensAt:       station.OpensAt,
		ClosesAt:      station.ClosesAt,
		Latitude:      station.Latitude,
		Longitude:     station.Longitude,
		OwnerUID:      station.OwnerUID,
		AccountUID:    station.AccountUID,
		CreatedAt:     station.CreatedAt,
		UpdatedAt:     station.UpdatedAt,
	}
}

// FromModels converts a slice of station rows.
func FromModels(rows []models.Station) []StationDTO {
	out := make([]StationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
