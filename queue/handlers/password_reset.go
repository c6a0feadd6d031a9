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

// ResetMailer is the slice of the mailer the reset handler needs.
type ResetMailer interface {
	SendPasswordResetEmail(ctx context.Context, email, resetURL string) error
}

// PasswordResetHandler builds a reset token for the user named in the
// job payload and mails the reset link.
type PasswordResetHandler struct {
	dbAuth   db.DbAuth
	resetter *identity.Resetter
	baseURL  string
	mailer   ResetMailer
	logger   *slog.Logger
}

func NewPasswordResetHandler(dbAuth db.DbAuth, resetter *identity.Resetter, cfg *config.Config, mailer ResetMailer, logger *slog.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{
		dbAuth:   dbAuth,
		resetter: resetter,
		baseURL:  cfg.Server.BaseURL,
		mailer:   mailer,
		logger:   logger,
	}
}

func (h *PasswordResetHandler) Handle(ctx context.Context, job db.Job) error {
	var payload queue.PayloadPasswordReset
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse password reset payload: %w", err)
	}

	user, err := h.dbAuth.GetUserByEmail(payload.Email)
	if err != nil {
		return fmt.Errorf("failed to get user by email: %w", err)
	}
	if user == nil || !user.IsActive {
		// Deliberately not an error: the request path never reveals
		// whether an email exists, so a stale job just evaporates.
		h.logger.Info("skipping password reset email", "email", payload.Email)
		return nil
	}

	token, err := h.resetter.IssueToken(user)
	if err != nil {
		return fmt.Errorf("failed to issue password reset token: %w", err)
	}

	callbackURL := fmt.Sprintf("%s/api/confirm-password-reset?token=%s", h.baseURL, token)
	if err := h.mailer.SendPasswordResetEmail(ctx, user.Email, callbackURL); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}
