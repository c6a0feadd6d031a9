package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/startupgate/startupgate/config"
	"github.com/startupgate/startupgate/db"
	"github.com/startupgate/startupgate/identity"
	"github.com/startupgate/startupgate/queue"
)

// VerificationMailer is the slice of the mailer the verification handler
// needs.
type VerificationMailer interface {
	SendVerificationEmail(ctx context.Context, email, verifyURL string) error
}

// EmailVerificationHandler builds a verification token for the user named
// in the job payload and mails the activation link.
type EmailVerificationHandler struct {
	dbAuth   db.DbAuth
	verifier *identity.Verifier
	baseURL  string
	mailer   VerificationMailer
	logger   *slog.Logger
}

func NewEmailVerificationHandler(dbAuth db.DbAuth, verifier *identity.Verifier, cfg *config.Config, mailer VerificationMailer, logger *slog.Logger) *EmailVerificationHandler {
	return &EmailVerificationHandler{
		dbAuth:   dbAuth,
		verifier: verifier,
		baseURL:  cfg.Server.BaseURL,
		mailer:   mailer,
		logger:   logger,
	}
}

func (h *EmailVerificationHandler) Handle(ctx context.Context, job db.Job) error {
	var payload queue.PayloadEmailVerification
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse email verification payload: %w", err)
	}

	user, err := h.dbAuth.GetUserByEmail(payload.Email)
	if err != nil {
		return fmt.Errorf("failed to get user by email: %w", err)
	}
	if user == nil {
		// The account disappeared between enqueue and execution. Nothing
		// to retry.
		h.logger.Info("skipping verification email, user gone", "email", payload.Email)
		return nil
	}
	if user.Verified {
		h.logger.Info("skipping verification email, already verified", "user_id", user.ID)
		return nil
	}

	token, err := h.verifier.IssueToken(user)
	if err != nil {
		return fmt.Errorf("failed to issue verification token: %w", err)
	}

	callbackURL := fmt.Sprintf("%s/api/verify-email?token=%s", h.baseURL, token)
	if err := h.mailer.SendVerificationEmail(ctx, user.Email, callbackURL); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}
