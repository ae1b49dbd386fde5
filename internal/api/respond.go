// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/enconsulting/projectdesk/internal/authz"
	"github.com/enconsulting/projectdesk/internal/logging"
	"github.com/enconsulting/projectdesk/internal/models"
)

var validate = validator.New()

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondData sends a success response wrapping data.
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Data:     nil,
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error:    &models.APIError{Code: code, Message: message},
	})
}

// respondAppError translates a sentinel from the core into an HTTP
// response. Authorization denials deliberately carry nothing beyond
// "forbidden".
func respondAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, models.ErrForbidden):
		respondError(w, http.StatusForbidden, "FORBIDDEN", "forbidden")
	case errors.Is(err, models.ErrInvalidCredential):
		respondError(w, http.StatusBadRequest, "INVALID_CREDENTIAL", "invalid email or password")
	case errors.Is(err, models.ErrInvalidSecondFactor):
		respondError(w, http.StatusUnauthorized, "INVALID_SECOND_FACTOR", "invalid two-factor code")
	case errors.Is(err, models.ErrTwoFactorNotEnabled):
		respondError(w, http.StatusBadRequest, "TWO_FACTOR_NOT_ENABLED", "two-factor authentication not enabled")
	case errors.Is(err, models.ErrNoResetCode):
		respondError(w, http.StatusBadRequest, "NO_RESET_CODE", "no reset code requested")
	case errors.Is(err, models.ErrResetCodeExpired):
		respondError(w, http.StatusBadRequest, "RESET_CODE_EXPIRED", "reset code has expired")
	case errors.Is(err, models.ErrInvalidResetCode):
		respondError(w, http.StatusBadRequest, "INVALID_RESET_CODE", "invalid reset code")
	case errors.Is(err, models.ErrEmailTaken):
		respondError(w, http.StatusConflict, "EMAIL_TAKEN", "email already registered")
	case errors.Is(err, models.ErrLocked):
		respondError(w, http.StatusTooManyRequests, "LOCKED", "account temporarily locked")
	case errors.Is(err, models.ErrAccountInactive):
		respondError(w, http.StatusForbidden, "ACCOUNT_INACTIVE", "account is inactive")
	case errors.Is(err, models.ErrSamePassword):
		respondError(w, http.StatusBadRequest, "SAME_PASSWORD", "new password must differ from current password")
	case errors.Is(err, authz.ErrNilActor):
		respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "authentication required")
	default:
		logging.Error().Err(err).Msg("internal error")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// requireAllowed collapses an engine decision into a handler guard. It
// writes the response on denial or error and reports whether the handler
// may proceed.
func requireAllowed(w http.ResponseWriter, allowed bool, err error) bool {
	if err != nil {
		respondAppError(w, err)
		return false
	}
	if !allowed {
		respondAppError(w, models.ErrForbidden)
		return false
	}
	return true
}

// decodeJSON parses and validates a request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "MALFORMED_BODY", "request body is not valid JSON")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := strings.ToLower(verrs[0].Field())
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("invalid field: %s", field))
			return false
		}
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request")
		return false
	}
	return true
}
