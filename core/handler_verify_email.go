package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/startupgate/startupgate/identity"
)

// VerifyEmailHandler consumes a verification token and activates the
// account.
// Endpoint: GET|POST /api/verify-email
// Authenticated: No
//
// GET reads the token from the query string so the emailed link works
// directly; POST accepts {"token": "..."} for clients that relay it.
func (a *App) VerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	var token string
	switch r.Method {
	case http.MethodGet:
		token = r.URL.Query().Get("token")
	default:
		if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
			writeJsonResponse(w, resp)
			return
		}
		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJsonResponse(w, errorInvalidRequest)
			return
		}
		token = body.Token
	}

	if token == "" {
		writeJsonResponse(w, errorInvalidRequest)
		return
	}

	if _, err := a.verifier.ConsumeToken(token); err != nil {
		if errors.Is(err, identity.ErrInvalidOrExpiredToken) {
			writeJsonResponse(w, errorInvalidToken)
			return
		}
		a.Logger().Error("email verification failed", "err", err)
		writeJsonResponse(w, errorInternal)
		return
	}

	writeJsonResponse(w, okEmailVerified)
}
