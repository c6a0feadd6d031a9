package config

import (
	"time"

	"github.com/startupgate/startupgate/crypto"
)

// NewDefaultConfig creates a new Config with sensible defaults.
// All secret values are randomly generated.
func NewDefaultConfig() *Config {
	return &Config{
		DBFile: "startupgate.db",
		Jwt: Jwt{
			AuthSecret:                   crypto.RandomString(32, crypto.AlphanumericAlphabet),
			AccessTokenDuration:          Duration{Duration: 30 * time.Minute},
			RefreshTokenDuration:         Duration{Duration: 7 * 24 * time.Hour},
			RefreshTokenRememberDuration: Duration{Duration: 30 * 24 * time.Hour},
		},
		Tokens: Tokens{
			VerificationSecret:  crypto.RandomString(32, crypto.AlphanumericAlphabet),
			VerificationMaxAge:  Duration{Duration: 24 * time.Hour},
			PasswordResetSecret: crypto.RandomString(32, crypto.AlphanumericAlphabet),
			PasswordResetMaxAge: Duration{Duration: 1 * time.Hour},
		},
		Resend: Resend{
			EmailTTL: Duration{Duration: 60 * time.Second},
			IPTTL:    Duration{Duration: 60 * time.Second},
		},
		Lockout: Lockout{
			Threshold: 5,
			Window:    Duration{Duration: 15 * time.Minute},
		},
		RateLimits: RateLimits{
			PerIPPerSecond:            5,
			Burst:                     10,
			EmailVerificationCooldown: Duration{Duration: 1 * time.Hour},
			PasswordResetCooldown:     Duration{Duration: 2 * time.Hour},
		},
		Scheduler: Scheduler{
			Interval:              Duration{Duration: 60 * time.Second},
			MaxJobsPerTick:        10,
			ConcurrencyMultiplier: 2,
			JobTimeout:            Duration{Duration: 2 * time.Minute},
		},
		Server: Server{
			Addr:                    ":8080",
			BaseURL:                 "http://localhost:8080",
			ShutdownGracefulTimeout: Duration{Duration: 15 * time.Second},
			ReadTimeout:             Duration{Duration: 2 * time.Second},
			ReadHeaderTimeout:       Duration{Duration: 2 * time.Second},
			WriteTimeout:            Duration{Duration: 3 * time.Second},
			IdleTimeout:             Duration{Duration: 1 * time.Minute},
			ClientIpProxyHeader:     "",
		},
		Smtp: Smtp{
			Enabled:     false,
			Host:        "smtp.gmail.com",
			Port:        587,
			FromName:    "Startup Gateway",
			FromAddress: "",
			Username:    "",
			Password:    "",
		},
		BlockIp: BlockIp{
			Activated: false,
			K:         10,
			Window:    60,
			TickSize:  100,
		},
	}
}
