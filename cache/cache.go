package cache

import "time"

// Cache defines a generic interface compatible with Ristretto and other caches
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache
	Get(key K) (V, bool)

	// Set stores a value with cost, returning true if successful
	Set(key K, value V, cost int64) bool

	// SetWithTTL stores a value with cost and TTL, returning true if successful
	SetWithTTL(key K, value V, cost int64, ttl time.Duration) bool

	// SetIfAbsent stores a value with TTL only when the key is not already
	// present, returning true if this call stored it. The check-and-set is
	// atomic with respect to other SetIfAbsent calls: two concurrent
	// requests for the same throttle key must not both observe "absent".
	SetIfAbsent(key K, value V, cost int64, ttl time.Duration) bool
}
