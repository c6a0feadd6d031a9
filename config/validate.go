package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/startupgate/startupgate/crypto"
)

func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := validateSecrets(cfg); err != nil {
		return fmt.Errorf("secret config validation failed: %w", err)
	}
	if cfg.Lockout.Threshold <= 0 {
		return fmt.Errorf("lockout threshold must be positive, got %d", cfg.Lockout.Threshold)
	}
	if cfg.Lockout.Window.Duration <= 0 {
		return fmt.Errorf("lockout window must be positive")
	}
	if cfg.Resend.EmailTTL.Duration <= 0 || cfg.Resend.IPTTL.Duration <= 0 {
		return fmt.Errorf("resend throttle TTLs must be positive")
	}
	if cfg.Tokens.VerificationMaxAge.Duration <= 0 || cfg.Tokens.PasswordResetMaxAge.Duration <= 0 {
		return fmt.Errorf("token max ages must be positive")
	}
	// CoolDownBucket panics on a non-positive duration, so a bad value
	// here would surface as a panic on the first request instead of a
	// startup error.
	if cfg.RateLimits.EmailVerificationCooldown.Duration <= 0 || cfg.RateLimits.PasswordResetCooldown.Duration <= 0 {
		return fmt.Errorf("email cooldowns must be positive")
	}
	if cfg.RateLimits.PerIPPerSecond <= 0 || cfg.RateLimits.Burst <= 0 {
		return fmt.Errorf("per-ip rate limit and burst must be positive")
	}
	if cfg.Scheduler.Interval.Duration <= 0 || cfg.Scheduler.MaxJobsPerTick <= 0 {
		return fmt.Errorf("scheduler interval and max jobs per tick must be positive")
	}
	if cfg.Scheduler.ConcurrencyMultiplier <= 0 || cfg.Scheduler.JobTimeout.Duration <= 0 {
		return fmt.Errorf("scheduler concurrency multiplier and job timeout must be positive")
	}
	return nil
}

func validateSecrets(cfg *Config) error {
	secrets := map[string]string{
		"jwt.auth_secret":              cfg.Jwt.AuthSecret,
		"tokens.verification_secret":   cfg.Tokens.VerificationSecret,
		"tokens.password_reset_secret": cfg.Tokens.PasswordResetSecret,
	}
	for name, secret := range secrets {
		if len(secret) < crypto.MinKeyLength {
			return fmt.Errorf("%s must be at least %d bytes", name, crypto.MinKeyLength)
		}
	}
	return nil
}

// validateServer checks the Server configuration section.
// It ensures the Addr field is not empty and contains a valid host:port or
// :port format. If only a port is provided (e.g., ":8080"), the host
// defaults to "localhost".
func validateServer(server *Server) error {
	if server.Addr == "" {
		return fmt.Errorf("server address (Addr) cannot be empty")
	}

	host, port, err := net.SplitHostPort(server.Addr)
	if err != nil {
		if strings.HasPrefix(server.Addr, ":") {
			port = strings.TrimPrefix(server.Addr, ":")
		} else {
			return fmt.Errorf("invalid server address format '%s': %w", server.Addr, err)
		}
	}
	// SplitHostPort accepts ":9090" with an empty host, so the default
	// must apply on that path too.
	if host == "" {
		host = "localhost"
	}

	if port == "" {
		return fmt.Errorf("server address '%s' must include a port", server.Addr)
	}

	server.Addr = net.JoinHostPort(host, port)

	if _, err := net.LookupPort("tcp", port); err != nil {
		return fmt.Errorf("invalid port '%s' in server address '%s': %w", port, server.Addr, err)
	}

	return nil
}
