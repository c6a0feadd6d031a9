package core

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/startupgate/startupgate/cache"
	"github.com/startupgate/startupgate/config"
	"github.com/startupgate/startupgate/db/mock"
	"github.com/startupgate/startupgate/funding"
	"github.com/startupgate/startupgate/identity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAppConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Jwt.AuthSecret = "test-auth-secret-0123456789abcdefghij"
	cfg.Tokens.VerificationSecret = "test-verification-secret-0123456789ab"
	cfg.Tokens.PasswordResetSecret = "test-password-reset-secret-0123456789"
	return cfg
}

// memCache is a deterministic Cache for handler tests; the real
// ristretto cache admits entries asynchronously.
type memCache[V any] struct {
	mu      sync.Mutex
	entries map[string]memEntry[V]
}

type memEntry[V any] struct {
	value   V
	expires time.Time
}

var _ cache.Cache[string, bool] = (*memCache[bool])(nil)

func newMemCache[V any]() *memCache[V] {
	return &memCache[V]{entries: make(map[string]memEntry[V])}
}

func (c *memCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || (!entry.expires.IsZero() && time.Now().After(entry.expires)) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

func (c *memCache[V]) Set(key string, value V, cost int64) bool {
	return c.SetWithTTL(key, value, cost, 0)
}

func (c *memCache[V]) SetWithTTL(key string, value V, cost int64, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	c.entries[key] = memEntry[V]{value: value, expires: expires}
	return true
}

func (c *memCache[V]) SetIfAbsent(key string, value V, cost int64, ttl time.Duration) bool {
	c.mu.Lock()
	entry, ok := c.entries[key]
	live := ok && (entry.expires.IsZero() || time.Now().Before(entry.expires))
	c.mu.Unlock()
	if live {
		return false
	}
	return c.SetWithTTL(key, value, cost, ttl)
}

// newTestApp wires an App over the mock database with deterministic
// caches. Tests override mock function fields per case.
func newTestApp(t *testing.T, dbMock *mock.Db) *App {
	t.Helper()

	cfg := testAppConfig()
	logger := testLogger()

	registrar := identity.NewRegistrar(dbMock, logger)
	verifier, err := identity.NewVerifier(dbMock, newMemCache[bool](), cfg, logger)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	resetter, err := identity.NewResetter(dbMock, dbMock, dbMock, cfg, logger)
	if err != nil {
		t.Fatalf("NewResetter() error = %v", err)
	}
	lockout := identity.NewCacheLockoutTracker(newMemCache[int](), cfg.Lockout, logger)
	authenticator, err := identity.NewAuthenticator(dbMock, lockout, cfg, logger)
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}

	app, err := NewApp(
		WithDbApp(dbMock),
		WithConfigProvider(config.NewProvider(cfg)),
		WithLogger(logger),
		WithValidator(&DefaultValidator{}),
		WithIdentity(registrar, verifier, resetter, authenticator),
		WithFunding(funding.NewStateMachine(dbMock, logger)),
	)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	return app
}
