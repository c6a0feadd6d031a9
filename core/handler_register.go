package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/startupgate/startupgate/db"
	"github.com/startupgate/startupgate/identity"
	"github.com/startupgate/startupgate/queue"
)

// RegisterHandler creates an account and schedules the verification
// email.
// Endpoint: POST /api/register
// Authenticated: No
//
// The response is 201 with a generic message for new and duplicate
// emails alike; the body never reveals whether the address existed.
func (a *App) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonResponse(w, resp)
		return
	}

	var input identity.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJsonResponse(w, errorInvalidRequest)
		return
	}

	user, _, shouldSendEmail, err := a.registrar.Register(input)
	if err != nil {
		if errors.Is(err, identity.ErrValidation) {
			writeJsonMessage(w, http.StatusBadRequest, CodeErrorInvalidRequest, err.Error())
			return
		}
		a.Logger().Error("registration failed", "err", err)
		writeJsonResponse(w, errorInternal)
		return
	}

	// The account row is committed at this point; the email side effect
	// runs from the queue so a failure here cannot unwind the account
	// and a rolled-back account can never receive mail.
	if shouldSendEmail {
		a.enqueueVerificationEmail(user.Email)
	}

	writeJsonResponse(w, okRegistered)
}

// enqueueVerificationEmail schedules a verification email job. The
// cooldown bucket in the payload plus the queue's unique constraint
// deduplicate repeated requests inside one cooldown window. Failures are
// logged and swallowed: mail trouble must not break registration.
func (a *App) enqueueVerificationEmail(email string) {
	cooldown := a.Config().RateLimits.EmailVerificationCooldown.Duration
	payload, err := json.Marshal(queue.PayloadEmailVerification{
		Email:          email,
		CooldownBucket: queue.CoolDownBucket(cooldown, time.Now()),
	})
	if err != nil {
		a.Logger().Error("failed to marshal verification payload", "err", err)
		return
	}
	err = a.DbQueue().InsertJob(db.Job{
		JobType: queue.JobTypeEmailVerification,
		Payload: payload,
	})
	switch {
	case err == nil:
	case errors.Is(err, db.ErrConstraintUnique):
		a.Logger().Info("verification email already queued", "email", email)
	default:
		a.Logger().Error("failed to queue verification email", "email", email, "err", err)
	}
}

// writeJsonMessage writes a dynamic envelope for messages that cannot be
// precomputed, like field-level validation feedback.
func writeJsonMessage(w http.ResponseWriter, status int, code, message string) {
	writeJsonData(w, status, JsonBasic{Status: status, Code: code, Message: message})
}
