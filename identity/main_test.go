package identity

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/startupgate/startupgate/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Jwt.AuthSecret = "test-auth-secret-0123456789abcdefghij"
	cfg.Tokens.VerificationSecret = "test-verification-secret-0123456789ab"
	cfg.Tokens.PasswordResetSecret = "test-password-reset-secret-0123456789"
	return cfg
}

// memCache is a deterministic Cache implementation for tests. The real
// ristretto cache admits entries asynchronously, which would make
// throttle and lockout assertions racy.
type memCache[V any] struct {
	mu      sync.Mutex
	entries map[string]memEntry[V]
	// failSets makes every write report failure, exercising the
	// degraded-tracker paths.
	failSets bool
}

type memEntry[V any] struct {
	value   V
	expires time.Time
}

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
	if c.failSets {
		return false
	}
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
