package config

import (
	"sync/atomic"
	"time"
)

// Duration wraps time.Duration for TOML decoding of values like "60s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the immutable application configuration. Services receive it
// (or the sections they need) at construction; there are no ambient
// lookups at call time. A later change requires re-constructing the
// affected services via the Provider.
type Config struct {
	// Source is the path the config was loaded from, empty for defaults.
	Source string `toml:"-"`

	Jwt        Jwt        `toml:"jwt"`
	Tokens     Tokens     `toml:"tokens"`
	Resend     Resend     `toml:"resend"`
	Lockout    Lockout    `toml:"lockout"`
	RateLimits RateLimits `toml:"rate_limits"`
	Scheduler  Scheduler  `toml:"scheduler"`
	Server     Server     `toml:"server"`
	Smtp       Smtp       `toml:"smtp"`
	BlockIp    BlockIp    `toml:"block_ip"`
	DBFile     string     `toml:"db_file"`
}

// Jwt configures session token minting. Remember-me extends only the
// refresh token lifetime; access tokens stay short regardless.
type Jwt struct {
	AuthSecret                   string   `toml:"auth_secret"`
	AccessTokenDuration          Duration `toml:"access_token_duration"`
	RefreshTokenDuration         Duration `toml:"refresh_token_duration"`
	RefreshTokenRememberDuration Duration `toml:"refresh_token_remember_duration"`
}

// Tokens configures the signed one-time token flows.
type Tokens struct {
	VerificationSecret  string   `toml:"verification_secret"`
	VerificationMaxAge  Duration `toml:"verification_max_age"`
	PasswordResetSecret string   `toml:"password_reset_secret"`
	PasswordResetMaxAge Duration `toml:"password_reset_max_age"`
}

// Resend configures the verification resend throttle markers.
type Resend struct {
	EmailTTL Duration `toml:"email_ttl"`
	IPTTL    Duration `toml:"ip_ttl"`
}

// Lockout configures the failed-login tracker.
type Lockout struct {
	Threshold int      `toml:"threshold"`
	Window    Duration `toml:"window"`
}

type RateLimits struct {
	// PerIPPerSecond and Burst drive the token-bucket middleware in front
	// of the auth endpoints.
	PerIPPerSecond            float64  `toml:"per_ip_per_second"`
	Burst                     int      `toml:"burst"`
	EmailVerificationCooldown Duration `toml:"email_verification_cooldown"`
	PasswordResetCooldown     Duration `toml:"password_reset_cooldown"`
}

type Scheduler struct {
	Interval              Duration `toml:"interval"`
	MaxJobsPerTick        int      `toml:"max_jobs_per_tick"`
	ConcurrencyMultiplier int      `toml:"concurrency_multiplier"`
	JobTimeout            Duration `toml:"job_timeout"`
}

type Server struct {
	Addr                    string   `toml:"addr"`
	BaseURL                 string   `toml:"base_url"`
	ShutdownGracefulTimeout Duration `toml:"shutdown_graceful_timeout"`
	ReadTimeout             Duration `toml:"read_timeout"`
	ReadHeaderTimeout       Duration `toml:"read_header_timeout"`
	WriteTimeout            Duration `toml:"write_timeout"`
	IdleTimeout             Duration `toml:"idle_timeout"`
	ClientIpProxyHeader     string   `toml:"client_ip_proxy_header"`
}

type Smtp struct {
	Enabled     bool   `toml:"enabled"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	FromName    string `toml:"from_name"`
	FromAddress string `toml:"from_address"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
}

// BlockIp configures the sliding top-k sketch that flags abusive IPs.
type BlockIp struct {
	Activated bool   `toml:"activated"`
	K         int    `toml:"k"`
	Window    int    `toml:"window"`
	TickSize  uint64 `toml:"tick_size"`
}

// Provider hands the current Config to components that may outlive a
// reload. Get is safe for concurrent use.
type Provider struct {
	cfg atomic.Pointer[Config]
}

func NewProvider(cfg *Config) *Provider {
	p := &Provider{}
	p.cfg.Store(cfg)
	return p
}

func (p *Provider) Get() *Config {
	return p.cfg.Load()
}

func (p *Provider) Update(cfg *Config) {
	p.cfg.Store(cfg)
}
