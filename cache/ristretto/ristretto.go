package ristretto

import (
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/startupgate/startupgate/cache"
)

type Cache[V any] struct {
	cache *ristretto.Cache[string, V]

	// Serializes SetIfAbsent check-and-set pairs. Ristretto applies writes
	// asynchronously, so the guarded section also waits for the write
	// buffer to drain before releasing the lock.
	mu sync.Mutex
}

func (rc *Cache[V]) Get(key string) (V, bool) {
	return rc.cache.Get(key)
}

func (rc *Cache[V]) Set(key string, value V, cost int64) bool {
	return rc.cache.Set(key, value, cost)
}

func (rc *Cache[V]) SetWithTTL(key string, value V, cost int64, ttl time.Duration) bool {
	return rc.cache.SetWithTTL(key, value, cost, ttl)
}

func (rc *Cache[V]) SetIfAbsent(key string, value V, cost int64, ttl time.Duration) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if _, found := rc.cache.Get(key); found {
		return false
	}
	if !rc.cache.SetWithTTL(key, value, cost, ttl) {
		return false
	}
	rc.cache.Wait()
	return true
}

func New[V any]() (cache.Cache[string, V], error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: 1e7,     // number of keys to track frequency of (10M)
		MaxCost:     1 << 30, // maximum cost of cache (1GB)
		BufferItems: 64,      // number of keys per Get buffer
	})
	if err != nil {
		return nil, err
	}

	return &Cache[V]{cache: c}, nil
}
