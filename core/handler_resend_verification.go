package core

import (
	"encoding/json"
	"net/http"

	"github.com/startupgate/startupgate/identity"
)

// ResendVerificationHandler re-schedules a verification email.
// Endpoint: POST /api/resend-verification
// Authenticated: No
//
// The status is 200 with a generic message in every non-error case:
// unknown address, already verified, throttled, or actually queued.
// Anything else would let a caller probe which emails are registered.
func (a *App) ResendVerificationHandler(w http.ResponseWriter, r *http.Request) {
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
	email := identity.NormalizeEmail(body.Email)
	if err := ValidateEmail(email); err != nil {
		writeJsonResponse(w, errorInvalidRequest)
		return
	}

	user, err := a.DbAuth().GetUserByEmail(email)
	if err != nil {
		a.Logger().Error("resend verification lookup failed", "err", err)
		writeJsonResponse(w, errorInternal)
		return
	}

	emailKnown := user != nil && !user.Verified

	throttled := a.verifier.IsResendThrottled(email, a.getClientIP(r), emailKnown)

	if emailKnown && !throttled {
		a.enqueueVerificationEmail(email)
	}

	writeJsonResponse(w, okVerificationRequested)
}
