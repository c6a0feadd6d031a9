package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"

	"github.com/startupgate/startupgate/config"
)

// Mailer sends transactional email over SMTP. A nil auth is used when
// no username is configured, which keeps local smtp catchers working.
type Mailer struct {
	addr   string
	host   string
	auth   smtp.Auth
	from   string
	logger *slog.Logger
}

func New(cfg config.Smtp, logger *slog.Logger) *Mailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	from := cfg.FromAddress
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)
	}
	return &Mailer{
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		host:   cfg.Host,
		auth:   auth,
		from:   from,
		logger: logger,
	}
}

// SendVerificationEmail delivers the account activation link.
func (m *Mailer) SendVerificationEmail(ctx context.Context, email, verifyURL string) error {
	mail := mailyak.New(m.addr, m.auth)

	mail.To(email)
	mail.From(m.from)
	mail.Subject("Verify your email address")
	mail.Plain().Set(fmt.Sprintf(
		"Welcome!\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nIf you did not create an account, you can ignore this message.\n",
		verifyURL))
	mail.HTML().Set(fmt.Sprintf(`
		<h1>Verify your email address</h1>
		<p>Please click the link below to activate your account:</p>
		<p><a href="%s">Verify email</a></p>
		<p>If you did not create an account, you can ignore this message.</p>
	`, verifyURL))

	if err := m.send(ctx, mail); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	m.logger.Info("sent verification email", "email", email)
	return nil
}

// SendPasswordResetEmail delivers the password reset link.
func (m *Mailer) SendPasswordResetEmail(ctx context.Context, email, resetURL string) error {
	mail := mailyak.New(m.addr, m.auth)

	mail.To(email)
	mail.From(m.from)
	mail.Subject("Reset your password")
	mail.Plain().Set(fmt.Sprintf(
		"A password reset was requested for this address.\n\nOpen the link below to choose a new password:\n\n%s\n\nIf you did not request a reset, no action is needed.\n",
		resetURL))
	mail.HTML().Set(fmt.Sprintf(`
		<h1>Reset your password</h1>
		<p>A password reset was requested for this address. Click the link
		below to choose a new password:</p>
		<p><a href="%s">Reset password</a></p>
		<p>If you did not request a reset, no action is needed.</p>
	`, resetURL))

	if err := m.send(ctx, mail); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	m.logger.Info("sent password reset email", "email", email)
	return nil
}

// send runs the blocking SMTP exchange in a goroutine so the caller's
// context deadline is honored.
func (m *Mailer) send(ctx context.Context, mail *mailyak.MailYak) error {
	done := make(chan error, 1)
	go func() {
		done <- mail.Send()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
