// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// forgotPasswordMessage is returned for every forgot-password request,
// existing account or not. A single shared constant guarantees the two
// cases cannot drift apart and become an enumeration oracle.
const forgotPasswordMessage = "if the account exists, a reset code has been sent"

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondAppError(w, err)
		return
	}

	if result.SecondFactorRequired {
		respondData(w, http.StatusOK, map[string]interface{}{
			"two_factor_required": true,
		})
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"user": result.User,
	})
}

type secondFactorRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// LoginSecondFactor handles POST /auth/login/2fa.
func (h *Handler) LoginSecondFactor(w http.ResponseWriter, r *http.Request) {
	var req secondFactorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.LoginSecondFactor(r.Context(), req.Email, req.Code)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"user": user})
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SetupTwoFactor handles POST /auth/2fa/setup. Any existing secret is
// replaced.
func (h *Handler) SetupTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	enrollment, err := h.auth.SetupTwoFactor(r.Context(), req.Email)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"secret": enrollment.Secret,
		"uri":    enrollment.URI,
	})
}

type disableTwoFactorRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DisableTwoFactor handles POST /auth/2fa/disable.
func (h *Handler) DisableTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req disableTwoFactorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.auth.DisableTwoFactor(r.Context(), req.Email, req.Password); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"disabled": true})
}

// TwoFactorQR handles GET /auth/2fa/qr/{email}, returning a PNG.
func (h *Handler) TwoFactorQR(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "email is required")
		return
	}

	img, err := h.auth.TwoFactorQR(r.Context(), email, 256)
	if err != nil {
		respondAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		return
	}
}

// TwoFactorStatus handles GET /auth/2fa/status/{email}.
func (h *Handler) TwoFactorStatus(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "email is required")
		return
	}

	enabled, err := h.auth.TwoFactorStatus(r.Context(), email)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"enabled": enabled})
}

// ForgotPassword handles POST /auth/forgot-password. The response is
// byte-identical whether or not the account exists.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"message": forgotPasswordMessage,
	})
}

type verifyResetCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// VerifyResetCode handles POST /auth/verify-reset-code.
func (h *Handler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req verifyResetCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.auth.VerifyResetCode(r.Context(), req.Email, req.Code); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"valid": true})
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ResetPassword handles POST /auth/reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"reset": true})
}

type changePasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword handles POST /auth/change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.auth.ChangePassword(r.Context(), req.Email, req.CurrentPassword, req.NewPassword); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"changed": true})
}
