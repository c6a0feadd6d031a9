package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/startupgate/startupgate/identity"
)

// RequestPasswordResetHandler schedules a password reset email.
// Endpoint: POST /api/request-password-reset
// Authenticated: No
//
// Returns 202 with the same message for known and unknown addresses.
// Every attempt lands in the audit log either way.
func (a *App) RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonResponse(w, resp)
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		writeJsonResponse(w, errorInvalidRequest)
		return
	}
	if err := ValidateEmail(identity.NormalizeEmail(body.Email)); err != nil {
		writeJsonResponse(w, errorInvalidRequest)
		return
	}

	if err := a.resetter.RequestReset(body.Email, a.getClientIP(r)); err != nil {
		a.Logger().Error("password reset request failed", "err", err)
		writeJsonResponse(w, errorInternal)
		return
	}

	writeJsonResponse(w, okResetRequested)
}

// ConfirmPasswordResetHandler sets a new password from a reset token.
// Endpoint: POST /api/confirm-password-reset
// Authenticated: No
//
// The token is signed with a key derived from the current password
// hash, so confirming once invalidates every token issued before.
func (a *App) ConfirmPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonResponse(w, resp)
		return
	}

	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		writeJsonResponse(w, errorInvalidRequest)
		return
	}

	if err := a.resetter.ConfirmReset(body.Token, body.Password); err != nil {
		switch {
		case errors.Is(err, identity.ErrValidation):
			writeJsonMessage(w, http.StatusBadRequest, CodeErrorInvalidRequest, err.Error())
		case errors.Is(err, identity.ErrInvalidOrExpiredToken):
			writeJsonResponse(w, errorInvalidToken)
		default:
			a.Logger().Error("password reset confirm failed", "err", err)
			writeJsonResponse(w, errorInternal)
		}
		return
	}

	writeJsonResponse(w, okPasswordReset)
}
