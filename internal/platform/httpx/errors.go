// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Result statuses reported next to the success discriminant.
const (
	StatusOK           = "ok"
	StatusNotFound     = "not_found"
	StatusInvalid      = "invalid"
	StatusConflict     = "conflict"
	StatusUnauthorized = "unauthorized"
	StatusError        = "error"
)

// RespondError maps domain errors onto the result envelope. Not-found and validation
// outcomes are ordinary results; only unexpected failures are logged at error level.
func RespondError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, Result{Status: StatusInvalid, Message: err.Error(), Fields: verr.Fields})
	case errors.Is(err, shared.ErrValidation):
		JSON(w, http.StatusBadRequest, Result{Status: StatusInvalid, Message: err.Error()})
	case errors.Is(err, shared.ErrNotFound):
		if logger != nil {
			logger.Info(op+" not found", slog.Any("error", err))
		}
		JSON(w, http.StatusNotFound, Result{Status: StatusNotFound, Message: err.Error()})
	case errors.Is(err, shared.ErrConstraint), errors.Is(err, shared.ErrIdempotencyConflict):
		JSON(w, http.StatusConflict, Result{Status: StatusConflict, Message: err.Error()})
	case errors.Is(err, shared.ErrUnauthorized):
		JSON(w, http.StatusUnauthorized, Result{Status: StatusUnauthorized, Message: err.Error()})
	default:
		if logger != nil {
			logger.Error(op+" failed", slog.Any("error", err))
		}
		JSON(w, http.StatusInternalServerError, Result{Status: StatusError, Message: "internal error"})
	}
}
