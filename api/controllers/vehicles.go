package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/etfuel/etfuel-backend/api/responses"
	"github.com/etfuel/etfuel-backend/api/validators"
	"github.com/etfuel/etfuel-backend/internal/vehicles"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/logger"
)

type vehicleDriverRequest struct {
	Name          string `json:"name" validate:"required"`
	LicenseNumber string `json:"licenseNumber" validate:"required"`
	LicenseExpiry string `json:"licenseExpiry"`
	Phone         string `json:"phone"`
	Email         string `json:"email" validate:"omitempty,email"`
}

type vehicleAccountRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type vehicleCreateRequest struct {
	PlateNumber  string                 `json:"licensePlate" validate:"required"`
	Make         string                 `json:"brand"`
	Model        string                 `json:"model"`
	Year         int                    `json:"year"`
	Type         string                 `json:"vehicleType"`
	FuelType     string                 `json:"fuelType"`
	TankCapacity int                    `json:"tankCapacity" validate:"omitempty,min=0"`
	Status       string                 `json:"status"`
	Driver       *vehicleDriverRequest  `json:"driver"`
	Account      *vehicleAccountRequest `json:"userRegistration"`
}

type vehicleUpdateRequest struct {
	PlateNumber  *string    `json:"licensePlate"`
	Make         *string    `json:"brand"`
	Model        *string    `json:"model"`
	Year         *int       `json:"year"`
	Type         *string    `json:"vehicleType"`
	FuelType     *string    `json:"fuelType"`
	TankCapacity *int       `json:"tankCapacity"`
	Status       *string    `json:"status"`
	DriverUID    *uuid.UUID `json:"driverUid"`
}

func VehicleList(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		rows, err := svc.List(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"vehicles": rows})
	}
}

func VehicleGet(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "vehicleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vehicle, err := svc.GetByID(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"vehicle": vehicle})
	}
}

// VehicleCreate registers a vehicle, optionally with an inline driver and the
// driver's login account.
func VehicleCreate(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var body vehicleCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := vehicles.CreateVehicleInput{
			PlateNumber:  body.PlateNumber,
			Make:         body.Make,
			Model:        body.Model,
			Year:         body.Year,
			Type:         body.Type,
			FuelType:     body.FuelType,
			TankCapacity: body.TankCapacity,
			Status:       body.Status,
		}
		if body.Driver != nil {
			driver := vehicles.DriverInput{
				Name:          body.Driver.Name,
				LicenseNumber: body.Driver.LicenseNumber,
				Phone:         body.Driver.Phone,
				Email:         body.Driver.Email,
			}
			if body.Driver.LicenseExpiry != "" {
				expiry, parseErr := time.Parse("2006-01-02", body.Driver.LicenseExpiry)
				if parseErr != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "licenseExpiry must be YYYY-MM-DD"))
					return
				}
				driver.LicenseExpiry = &expiry
			}
			input.Driver = &driver
		}
		if body.Account != nil {
			input.Account = &vehicles.AccountRegistration{Email: body.Account.Email, Password: body.Account.Password}
		}

		vehicle, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"vehicle": vehicle})
	}
}

func VehicleUpdate(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "vehicleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body vehicleUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicle, err := svc.Update(r.Context(), actor, id, vehicles.UpdateVehicleInput{
			PlateNumber:  body.PlateNumber,
			Make:         body.Make,
			Model:        body.Model,
			Year:         body.Year,
			Type:         body.Type,
			FuelType:     body.FuelType,
			TankCapacity: body.TankCapacity,
			Status:       body.Status,
			DriverUID:    body.DriverUID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"vehicle": vehicle})
	}
}

func VehicleDelete(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "vehicleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
