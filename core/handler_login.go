package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/startupgate/startupgate/identity"
)

// LoginHandler authenticates with email and password and returns a
// session token pair.
// Endpoint: POST /api/login
// Authenticated: No
//
// Wrong password, unknown email and unverified account all map to the
// same 401 so the response carries no account oracle. A locked pair of
// ip and email gets 429 regardless of whether the password is right.
func (a *App) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonResponse(w, resp)
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Remember bool   `json:"remember"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJsonResponse(w, errorInvalidRequest)
		return
	}
	if body.Email == "" || body.Password == "" {
		writeJsonResponse(w, errorInvalidRequest)
		return
	}

	result, err := a.authenticator.Login(body.Email, body.Password, body.Remember, a.getClientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrLocked):
			writeJsonResponse(w, errorTooManyRequests)
		case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrInactive):
			writeJsonResponse(w, errorInvalidCredentials)
		default:
			a.Logger().Error("login failed", "err", err)
			writeJsonResponse(w, errorInternal)
		}
		return
	}

	writeJsonData(w, http.StatusOK, result)
}

// RefreshHandler exchanges a refresh token for a fresh access token.
// Endpoint: POST /api/refresh
// Authenticated: No (the refresh token is the credential)
func (a *App) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonResponse(w, resp)
		return
	}

	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Refresh == "" {
		writeJsonResponse(w, errorInvalidRequest)
		return
	}

	result, err := a.authenticator.Refresh(body.Refresh)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidOrExpiredToken), errors.Is(err, identity.ErrInactive):
			writeJsonResponse(w, errorInvalidSession)
		default:
			a.Logger().Error("token refresh failed", "err", err)
			writeJsonResponse(w, errorInternal)
		}
		return
	}

	writeJsonData(w, http.StatusOK, result)
}
