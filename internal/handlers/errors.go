package handlers

import (
	"errors"
	"net/http"

	"github.com/seeall/facturation/internal/httpx"
	"github.com/seeall/facturation/internal/services"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var vErr *services.ValidationError
	var cErr *services.ConflictError
	switch {
	case errors.As(err, &vErr):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", vErr.Violations)
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.As(err, &cErr):
		details := map[string]any{}
		if cErr.BlockingNumber != "" {
			details["blocking_number"] = cErr.BlockingNumber
		}
		if cErr.BlockingCount > 0 {
			details["blocking_count"] = cErr.BlockingCount
		}
		httpx.JSONError(w, http.StatusConflict, cErr.Code, details)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "storage_error", nil)
	}
}
