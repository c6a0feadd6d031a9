package identity

import (
	"log/slog"
	"sync"
	"time"

	"github.com/startupgate/startupgate/cache"
	"github.com/startupgate/startupgate/config"
)

// LockoutTracker counts failed login attempts per requester and reports
// when a requester is locked out.
type LockoutTracker interface {
	IsLocked(key string) bool
	RecordFailure(key string)
	Reset(key string)
}

// LockoutKey builds the tracker key from the requester IP and the
// normalized email, so lockouts apply per source and per target account.
func LockoutKey(ip, email string) string {
	return ip + "|" + NormalizeEmail(email)
}

// CacheLockoutTracker counts failures in the transient cache with the
// configured window as TTL. The mutex makes the read-modify-write of a
// counter safe against concurrent failed logins for the same key.
//
// The cache is best effort: an evicted or rejected entry reads as zero
// failures. That direction is deliberate, a tracker that cannot count
// must not lock anyone out, it just loses brute force protection until
// the cache recovers, and the loss is logged.
type CacheLockoutTracker struct {
	mu        sync.Mutex
	cache     cache.Cache[string, int]
	threshold int
	window    time.Duration
	logger    *slog.Logger
}

func NewCacheLockoutTracker(c cache.Cache[string, int], cfg config.Lockout, logger *slog.Logger) *CacheLockoutTracker {
	return &CacheLockoutTracker{
		cache:     c,
		threshold: cfg.Threshold,
		window:    cfg.Window.Duration,
		logger:    logger,
	}
}

func (t *CacheLockoutTracker) IsLocked(key string) bool {
	count, found := t.cache.Get("lockout:" + key)
	return found && count >= t.threshold
}

func (t *CacheLockoutTracker) RecordFailure(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cacheKey := "lockout:" + key
	count, _ := t.cache.Get(cacheKey)
	if !t.cache.SetWithTTL(cacheKey, count+1, 1, t.window) {
		t.logger.Error("lockout tracker failed to record attempt", "key", key)
	}
}

func (t *CacheLockoutTracker) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Overwrite with zero instead of deleting; the entry ages out with
	// the window TTL either way.
	t.cache.SetWithTTL("lockout:"+key, 0, 1, t.window)
}
