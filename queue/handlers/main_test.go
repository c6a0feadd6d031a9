package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/startupgate/startupgate/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Server.BaseURL = "https://app.example.com"
	cfg.Jwt.AuthSecret = "test-auth-secret-0123456789abcdefghij"
	cfg.Tokens.VerificationSecret = "test-verification-secret-0123456789ab"
	cfg.Tokens.PasswordResetSecret = "test-password-reset-secret-0123456789"
	return cfg
}

// captureMailer records the last send of each kind.
type captureMailer struct {
	verifyEmail string
	verifyURL   string
	resetEmail  string
	resetURL    string
	err         error
}

func (m *captureMailer) SendVerificationEmail(ctx context.Context, email, verifyURL string) error {
	m.verifyEmail, m.verifyURL = email, verifyURL
	return m.err
}

func (m *captureMailer) SendPasswordResetEmail(ctx context.Context, email, resetURL string) error {
	m.resetEmail, m.resetURL = email, resetURL
	return m.err
}
