package controllers

import (
	"net/http"

	"github.com/etfuel/etfuel-backend/api/middleware"
	"github.com/etfuel/etfuel-backend/api/responses"
	"github.com/etfuel/etfuel-backend/api/validators"
	"github.com/etfuel/etfuel-backend/internal/stations"
	pkgauth "github.com/etfuel/etfuel-backend/pkg/auth"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/logger"
)

type stationAccountRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type stationCreateRequest struct {
	Name          string                 `json:"name" validate:"required"`
	Code          string                 `json:"stationCode"`
	Type          string                 `json:"type"`
	Address       string                 `json:"address"`
	City          string                 `json:"city"`
	State         string                 `json:"state"`
	ZipCode       string                 `json:"zipCode"`
	Country       string                 `json:"country"`
	ContactPerson string                 `json:"contactPerson"`
	ContactPhone  string                 `json:"contactPhone"`
	ContactEmail  string                 `json:"contactEmail" validate:"omitempty,email"`
	Capacity      int                    `json:"capacity" validate:"omitempty,min=1"`
	Status        string                 `json:"status"`
	OpensAt       string                 `json:"opensAt"`
	ClosesAt      string                 `json:"closesAt"`
	Latitude      string                 `json:"latitude"`
	Longitude     string                 `json:"longitude"`
	Account       *stationAccountRequest `json:"userRegistration"`
}

type stationUpdateRequest struct {
	Name          *string `json:"name"`
	Code          *string `json:"stationCode"`
	Type          *string `json:"type"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	ZipCode       *string `json:"zipCode"`
	Country       *string `json:"country"`
	ContactPerson *string `json:"contactPerson"`
	ContactPhone  *string `json:"contactPhone"`
	ContactEmail  *string `json:"contactEmail"`
	Capacity      *int    `json:"capacity"`
	Status        *string `json:"status"`
	OpensAt       *string `json:"opensAt"`
	ClosesAt      *string `json:"closesAt"`
	Latitude      *string `json:"latitude"`
	Longitude     *string `json:"longitude"`
}

func requirePrincipal(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (pkgauth.Principal, bool) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
	}
	return principal, ok
}

// StationList returns stations scoped to the calling union, or all for admins.
func StationList(svc stations.Service, logg *logger.Logger) http.HandlerFunc {
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
		responses.WriteSuccess(w, map[string]any{"stations": rows})
	}
}

func StationGet(svc stations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "stationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		station, err := svc.GetByID(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"station": station})
	}
}

// StationCreate registers a station, optionally provisioning the operator
// login account alongside it.
func StationCreate(svc stations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var body stationCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := stations.CreateStationInput{
			Name:          body.Name,
			Code:          body.Code,
			Type:          body.Type,
			Address:       body.Address,
			City:          body.City,
			State:         body.State,
			ZipCode:       body.ZipCode,
			Country:       body.Country,
			ContactPerson: body.ContactPerson,
			ContactPhone:  body.ContactPhone,
			ContactEmail:  body.ContactEmail,
			Capacity:      body.Capacity,
			Status:        body.Status,
			OpensAt:       body.OpensAt,
			ClosesAt:      body.ClosesAt,
			Latitude:      body.Latitude,
			Longitude:     body.Longitude,
		}
		if body.Account != nil {
			input.Account = &stations.AccountRegistration{Email: body.Account.Email, Password: body.Account.Password}
		}

		station, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"station": station})
	}
}

func StationUpdate(svc stations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "stationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body stationUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		station, err := svc.Update(r.Context(), actor, id, stations.UpdateStationInput{
			Name:          body.Name,
			Code:          body.Code,
			Type:          body.Type,
			Address:       body.Address,
			City:          body.City,
			State:         body.State,
			ZipCode:       body.ZipCode,
			Country:       body.Country,
			ContactPerson: body.ContactPerson,
			ContactPhone:  body.ContactPhone,
			ContactEmail:  body.ContactEmail,
			Capacity:      body.Capacity,
			Status:        body.Status,
			OpensAt:       body.OpensAt,
			ClosesAt:      body.ClosesAt,
			Latitude:      body.Latitude,
			Longitude:     body.Longitude,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"station": station})
	}
}

func StationDelete(svc stations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "stationId")
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
