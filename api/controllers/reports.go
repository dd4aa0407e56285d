package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/etfuel/etfuel-backend/api/responses"
	"github.com/etfuel/etfuel-backend/api/validators"
	"github.com/etfuel/etfuel-backend/internal/reports"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/logger"
	"github.com/etfuel/etfuel-backend/pkg/pagination"
)

type reportFileRequest struct {
	StationUID   uuid.UUID `json:"stationUid" validate:"required"`
	ReportDate   string    `json:"reportDate"`
	FuelVolume   string    `json:"fuelVolume"`
	Revenue      string    `json:"revenue"`
	VehicleCount int       `json:"vehicleCount" validate:"omitempty,min=0"`
	Notes        string    `json:"notes"`
}

type reportStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func ReportList(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), actor, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func ReportListByStation(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		stationUID, err := validators.ParseUUIDParam(r, "stationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListByStation(r.Context(), actor, stationUID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"reports": rows})
	}
}

// ReportFile records a daily station report.
func ReportFile(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var body reportFileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := reports.FileReportInput{
			StationUID:   body.StationUID,
			FuelVolume:   body.FuelVolume,
			Revenue:      body.Revenue,
			VehicleCount: body.VehicleCount,
			Notes:        body.Notes,
		}
		if body.ReportDate != "" {
			date, parseErr := time.Parse("2006-01-02", body.ReportDate)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reportDate must be YYYY-MM-DD"))
				return
			}
			input.ReportDate = date
		}

		report, err := svc.File(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"report": report})
	}
}

// ReportSetStatus moves a report through pending, completed and review.
func ReportSetStatus(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "reportId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body reportStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.SetStatus(r.Context(), actor, id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"report": report})
	}
}
