package controllers

import (
	"net/http"

	"github.com/etfuel/etfuel-backend/api/middleware"
	"github.com/etfuel/etfuel-backend/api/responses"
	"github.com/etfuel/etfuel-backend/api/validators"
	"github.com/etfuel/etfuel-backend/internal/auth"
	"github.com/etfuel/etfuel-backend/pkg/enums"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/logger"
)

type profileUpdateRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

type adminUserUpdateRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

// ProfileGet returns the caller's own profile.
func ProfileGet(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		profile, err := svc.GetUser(r.Context(), principal.UID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"user": profile})
	}
}

// ProfileUpdate lets the caller change their own profile. Name is open to
// everyone; role and status changes require an admin caller.
func ProfileUpdate(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var body profileUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := auth.UpdateProfileInput{Name: body.Name}
		if body.Role != nil || body.Status != nil {
			if !principal.IsAdmin() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role and status changes require an admin role"))
				return
			}
			if body.Role != nil {
				role, parseErr := enums.ParseRole(*body.Role)
				if parseErr != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid role"))
					return
				}
				input.Role = &role
			}
			if body.Status != nil {
				status, parseErr := enums.ParseUserStatus(*body.Status)
				if parseErr != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
					return
				}
				input.Status = &status
			}
		}

		profile, err := svc.UpdateProfile(r.Context(), principal.UID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"user": profile})
	}
}

// ProfileUserData serves the public profile lookup used by the client session
// store. The DTO never carries the credential hash.
func ProfileUserData(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		uid, err := validators.ParseUUIDQuery(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.GetUser(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"userData": profile})
	}
}

// AdminUserUpdate applies name, role and status changes to any profile.
func AdminUserUpdate(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		uid, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adminUserUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := auth.UpdateProfileInput{Name: body.Name}
		if body.Role != nil {
			role, parseErr := enums.ParseRole(*body.Role)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid role"))
				return
			}
			input.Role = &role
		}
		if body.Status != nil {
			status, parseErr := enums.ParseUserStatus(*body.Status)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
				return
			}
			input.Status = &status
		}

		profile, err := svc.UpdateProfile(r.Context(), uid, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"user": profile})
	}
}
