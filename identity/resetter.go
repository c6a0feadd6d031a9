package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/startupgate/startupgate/config"
	"github.com/startupgate/startupgate/crypto"
	"github.com/startupgate/startupgate/db"
	"github.com/startupgate/startupgate/queue"
)

// Resetter implements the password reset flow. Request outcomes are
// success-shaped regardless of whether the email belongs to a user;
// every request leaves exactly one row in the audit log.
//
// Reset tokens are signed with a key derived from the user's email and
// current password hash. Confirming a reset changes the hash, so the
// token that carried the reset stops validating at that moment. The
// token is stateless but effectively single-use.
type Resetter struct {
	dbAuth   db.DbAuth
	dbAudit  db.DbAudit
	dbQueue  db.DbQueue
	secret   []byte
	maxAge   time.Duration
	cooldown time.Duration
	logger   *slog.Logger
}

func NewResetter(dbAuth db.DbAuth, dbAudit db.DbAudit, dbQueue db.DbQueue, cfg *config.Config, logger *slog.Logger) (*Resetter, error) {
	if len(cfg.Tokens.PasswordResetSecret) < crypto.MinKeyLength {
		return nil, fmt.Errorf("password reset secret must be at least %d bytes", crypto.MinKeyLength)
	}
	return &Resetter{
		dbAuth:   dbAuth,
		dbAudit:  dbAudit,
		dbQueue:  dbQueue,
		secret:   []byte(cfg.Tokens.PasswordResetSecret),
		maxAge:   cfg.Tokens.PasswordResetMaxAge.Duration,
		cooldown: cfg.RateLimits.PasswordResetCooldown.Duration,
		logger:   logger,
	}, nil
}

// RequestReset schedules a reset email for an active account and records
// the attempt. The returned error only reports infrastructure failures;
// an unknown or inactive email is not an error and leaves the caller's
// response indistinguishable from the known-email case.
func (r *Resetter) RequestReset(email, ip string) error {
	email = NormalizeEmail(email)

	user, err := r.dbAuth.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("lookup user for password reset: %w", err)
	}

	userID := ""
	tokenSent := false
	if user != nil && user.IsActive {
		userID = user.ID
		switch err := r.enqueueResetEmail(email); {
		case err == nil:
			tokenSent = true
		case errors.Is(err, db.ErrConstraintUnique):
			// A reset for this email is already queued in the current
			// cooldown bucket.
			r.logger.Info("password reset already queued", "email", email)
		default:
			r.logger.Error("failed to queue password reset email", "email", email, "err", err)
		}
	}

	attempt := db.ResetAttempt{
		UserID:    userID,
		Email:     email,
		IP:        ip,
		TokenSent: tokenSent,
	}
	if err := r.dbAudit.InsertResetAttempt(attempt); err != nil {
		return fmt.Errorf("record password reset attempt: %w", err)
	}
	return nil
}

func (r *Resetter) enqueueResetEmail(email string) error {
	payload, err := json.Marshal(queue.PayloadPasswordReset{
		Email:          email,
		CooldownBucket: queue.CoolDownBucket(r.cooldown, time.Now()),
	})
	if err != nil {
		return fmt.Errorf("marshal password reset payload: %w", err)
	}
	return r.dbQueue.InsertJob(db.Job{
		JobType: queue.JobTypePasswordReset,
		Payload: payload,
	})
}

// IssueToken signs a reset token for the user. Exposed for the queue
// handler that builds the reset email.
func (r *Resetter) IssueToken(user *db.User) (string, error) {
	signer, err := crypto.NewSignerWithCredentials(r.secret, user.Email, user.Password)
	if err != nil {
		return "", fmt.Errorf("password reset signer: %w", err)
	}
	return signer.Sign(user.ID), nil
}

// ValidateResetToken reports whether token is a live reset token for
// user. It never panics and treats every defect as false.
func (r *Resetter) ValidateResetToken(user *db.User, token string) bool {
	if user == nil {
		return false
	}
	signer, err := crypto.NewSignerWithCredentials(r.secret, user.Email, user.Password)
	if err != nil {
		return false
	}
	payload, err := signer.Unsign(token, r.maxAge)
	if err != nil {
		return false
	}
	return payload == user.ID
}

// ConfirmReset validates the token and replaces the user's password
// hash. The hash change invalidates the token itself and every session
// token derived from the old credentials.
func (r *Resetter) ConfirmReset(token, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	userID, err := crypto.UnsignedPayload(token)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}
	user, err := r.dbAuth.GetUserById(userID)
	if err != nil {
		return fmt.Errorf("lookup user for reset confirmation: %w", err)
	}
	if user == nil || !r.ValidateResetToken(user, token) {
		r.logger.Info("password reset token rejected", "user_id", userID)
		return ErrInvalidOrExpiredToken
	}

	hash, err := crypto.GenerateHash(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}
	if err := r.dbAuth.UpdatePassword(user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
