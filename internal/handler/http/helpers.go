package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/coupon"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/loyalty"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

// respondWithError sends an error body with the given status.
func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondWithJSON sends payload as JSON.
func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response","code":"internal_error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondWithServiceError translates a service error into its status, code
// and details. Storage failures hide their cause behind fallback.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	status := mapErrorToStatusCode(err)

	body := ErrorResponse{Code: apperr.Code(err), Error: err.Error()}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg(fallback)
		body.Error = fallback
	} else {
		log.Warn().Err(err).Str("code", body.Code).Msg(fallback)
	}

	var minimum *coupon.MinimumNotMetError
	var insufficient *loyalty.InsufficientPointsError
	switch {
	case errors.As(err, &minimum):
		body.Details = map[string]any{
			"minimum":   minimum.Minimum.StringFixed(2),
			"subtotal":  minimum.Subtotal.StringFixed(2),
			"shortfall": minimum.Shortfall().StringFixed(2),
		}
	case errors.As(err, &insufficient):
		body.Details = map[string]any{
			"required":  insufficient.Required,
			"available": insufficient.Available,
		}
	}

	respondWithJSON(w, status, body)
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, apperr.ErrStorage):
		return http.StatusInternalServerError
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrExpired),
		errors.Is(err, apperr.ErrNotYetActive),
		errors.Is(err, apperr.ErrRedemptionLimitReached),
		errors.Is(err, apperr.ErrPerClientLimitReached),
		errors.Is(err, apperr.ErrMinimumNotMet),
		errors.Is(err, apperr.ErrInsufficientPoints):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := strings.ToLower(fe.Field())
		if fe.Param() != "" {
			details[field] = fmt.Sprintf("failed on '%s=%s'", fe.Tag(), fe.Param())
		} else {
			details[field] = fmt.Sprintf("failed on '%s'", fe.Tag())
		}
	}
	return details
}

// decodeRequest decodes and validates the JSON body into dst. On failure it
// writes the response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "invalid_input", fmt.Sprintf("Invalid request payload: %v", err))
		return false
	}

	err := validate.Struct(dst)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Code:    "invalid_input",
			Details: formatValidationErrors(validationErrors),
		})
	} else {
		log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Internal validation error")
	}
	return false
}

func int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		log.Warn().Str(name, raw).Msg("Failed to parse URL parameter")
		respondWithError(w, http.StatusBadRequest, "invalid_input", "Invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.FromString(raw)
	if err != nil {
		log.Warn().Err(err).Str(name, raw).Msg("Failed to parse URL parameter")
		respondWithError(w, http.StatusBadRequest, "invalid_input", "Invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}
