package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate(defaults) error = %v", err)
	}
	if cfg.Jwt.AuthSecret == NewDefaultConfig().Jwt.AuthSecret {
		t.Error("two default configs share a generated secret")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")
	content := `
db_file = "custom.db"

[tokens]
verification_secret = "0123456789abcdef0123456789abcdef"
password_reset_secret = "0123456789abcdef0123456789abcdef"
verification_max_age = "12h"
password_reset_max_age = "30m"

[resend]
email_ttl = "90s"
ip_ttl = "45s"

[lockout]
threshold = 3
window = "10m"

[server]
addr = ":9090"
base_url = "https://gateway.example.com"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DBFile != "custom.db" {
		t.Errorf("DBFile = %q, want custom.db", cfg.DBFile)
	}
	if cfg.Tokens.VerificationMaxAge.Duration != 12*time.Hour {
		t.Errorf("VerificationMaxAge = %v, want 12h", cfg.Tokens.VerificationMaxAge.Duration)
	}
	if cfg.Resend.EmailTTL.Duration != 90*time.Second {
		t.Errorf("EmailTTL = %v, want 90s", cfg.Resend.EmailTTL.Duration)
	}
	if cfg.Lockout.Threshold != 3 {
		t.Errorf("Lockout.Threshold = %d, want 3", cfg.Lockout.Threshold)
	}
	// Validation normalizes ":9090" to "localhost:9090".
	if cfg.Server.Addr != "localhost:9090" {
		t.Errorf("Server.Addr = %q, want localhost:9090", cfg.Server.Addr)
	}
	// Untouched sections keep defaults.
	if cfg.Jwt.AccessTokenDuration.Duration != 30*time.Minute {
		t.Errorf("AccessTokenDuration = %v, want default 30m", cfg.Jwt.AccessTokenDuration.Duration)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty for defaults", cfg.Source)
	}
}

func TestValidateRejectsShortSecret(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Tokens.VerificationSecret = "short"
	if err := Validate(cfg); err == nil {
		t.Error("Validate() with short secret succeeded, want error")
	}
}

func TestValidateRejectsZeroCooldown(t *testing.T) {
	// A zero cooldown would make CoolDownBucket panic during request
	// handling, so it has to be caught at load time.
	cfg := NewDefaultConfig()
	cfg.RateLimits.EmailVerificationCooldown.Duration = 0
	if err := Validate(cfg); err == nil {
		t.Error("Validate() with zero verification cooldown succeeded, want error")
	}

	cfg = NewDefaultConfig()
	cfg.RateLimits.PasswordResetCooldown.Duration = 0
	if err := Validate(cfg); err == nil {
		t.Error("Validate() with zero reset cooldown succeeded, want error")
	}

	cfg = NewDefaultConfig()
	cfg.RateLimits.Burst = 0
	if err := Validate(cfg); err == nil {
		t.Error("Validate() with zero burst succeeded, want error")
	}
}

func TestValidateNormalizesBarePort(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Server.Addr = ":8443"
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Server.Addr != "localhost:8443" {
		t.Errorf("Server.Addr = %q, want localhost:8443", cfg.Server.Addr)
	}
}

func TestValidateRejectsBadLockout(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Lockout.Threshold = 0
	if err := Validate(cfg); err == nil {
		t.Error("Validate() with zero lockout threshold succeeded, want error")
	}
}

func TestProviderSwap(t *testing.T) {
	first := NewDefaultConfig()
	p := NewProvider(first)
	if p.Get() != first {
		t.Fatal("Get() did not return the stored config")
	}

	second := NewDefaultConfig()
	p.Update(second)
	if p.Get() != second {
		t.Error("Get() after Update() did not return the new config")
	}
}
