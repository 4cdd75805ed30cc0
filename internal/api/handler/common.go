package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bcnelson/recipe-api/internal/domain"
	"github.com/bcnelson/recipe-api/internal/validation"
)

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, &domain.StandardErrorResponse{
		Error: domain.StandardError{
			Code:    code,
			Message: message,
		},
	})
}

// respondValidationErrors writes a JSON response for one or more field failures.
func respondValidationErrors(w http.ResponseWriter, errs validation.ValidationErrors) {
	resp := &domain.StandardErrorResponse{
		Error: domain.StandardError{
			Code:    domain.ErrCodeValidationError,
			Message: errs.Error(),
			Details: map[string]any{"fields": errs.Fields()},
		},
	}
	if len(errs) > 0 {
		resp.Error.Field = errs[0].Field
	}
	respondJSON(w, http.StatusBadRequest, resp)
}

// handleError converts domain errors to HTTP errors.
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var fieldErr *validation.ValidationError
	var fieldErrs validation.ValidationErrors

	switch {
	case errors.As(err, &fieldErr):
		respondValidationErrors(w, validation.ValidationErrors{fieldErr})
	case errors.As(err, &fieldErrs):
		respondValidationErrors(w, fieldErrs)
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidCredentials, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid input")
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, domain.ErrCodeResourceNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrInactiveUser), errors.Is(err, domain.ErrForbidden):
		respondError(w, http.StatusForbidden, domain.ErrCodeForbidden, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respondError(w, http.StatusInternalServerError, domain.ErrCodeInternalError, "internal server error")
	}
}

// decodeJSON decodes JSON from request body.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}

// MethodNotAllowed responds to a known path requested with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, domain.ErrCodeMethodNotAllowed,
		"method \""+r.Method+"\" not allowed")
}

// NotFound responds to an unknown path.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, domain.ErrCodeResourceNotFound, "not found")
}
