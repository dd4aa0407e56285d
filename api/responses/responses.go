package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/logger"
)

// includeDetails controls whether raw error details are echoed to clients.
// Enabled from main when the app runs in a development configuration.
var includeDetails bool

// SetIncludeDetails toggles dev-only error detail exposure.
func SetIncludeDetails(enabled bool) {
	includeDetails = enabled
}

// WriteSuccess writes the `{success: true, ...}` envelope with HTTP 200.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

// WriteSuccessStatus flattens data into the success envelope. The payload's
// own JSON fields sit beside the success flag, which is the shape the
// dashboard clients expect.
func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	envelope := map[string]any{"success": true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			log.Printf(`{"level":"error","msg":"failed to marshal response payload","err":"%v"}`, err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   "internal server error",
			})
			return
		}
		fields := map[string]any{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			log.Printf(`{"level":"error","msg":"response payload is not an object","err":"%v"}`, err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   "internal server error",
			})
			return
		}
		for k, v := range fields {
			envelope[k] = v
		}
	}
	writeJSON(w, status, envelope)
}

// WriteError maps the error to its HTTP status and writes the
// `{success: false, error: ...}` envelope.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeForbidden,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict,
		pkgerrors.CodeRateLimit:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := map[string]any{
		"success": false,
		"error":   msg,
	}

	if includeDetails && meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload["details"] = details
		} else if cause := typed.Unwrap(); cause != nil {
			payload["details"] = cause.Error()
		}
	} else if meta.DetailsAllowed {
		if details := typed.Details(); details != nil && typed.Code() == pkgerrors.CodeValidation {
			// Field-level validation messages are always safe to return.
			payload["details"] = details
		}
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)

		fields := map[string]any{
			"error":         dump.TopMessage,
			"error_code":    dump.Code,
			"error_chain":   dump.Chain,
			"pg_code":       dump.PGCode,
			"pg_detail":     dump.PGDetail,
			"pg_message":    dump.PGMessage,
			"pg_table":      dump.PGTable,
			"pg_column":     dump.PGColumn,
			"pg_constraint": dump.PGConstraint,
		}

		ctx = logg.WithFields(ctx, fields)
		logg.Error(ctx, "request.error", err)
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
