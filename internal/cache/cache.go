package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the value for a key on a cache miss.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// Cache stores upstream JSON responses under string keys with per-key
// TTLs. Concurrent misses on the same key share a single fetch.
// Safe for concurrent use.
type Cache struct {
	items *ttlcache.Cache[string, json.RawMessage]
	group singleflight.Group
}

// New creates an empty cache. Reads do not extend an entry's TTL.
func New() *Cache {
	return &Cache{
		items: ttlcache.New[string, json.RawMessage](
			ttlcache.WithDisableTouchOnHit[string, json.RawMessage](),
		),
	}
}

// Start runs the background expiry loop. It blocks until Stop is called,
// so the owner runs it on its own goroutine. Expiry is also enforced
// lazily on read, so the loop only bounds memory between reads.
func (c *Cache) Start() { c.items.Start() }

// Stop terminates the background expiry loop.
func (c *Cache) Stop() { c.items.Stop() }

// GetOrFetch returns the unexpired value under key if present. Otherwise
// it invokes fetch, stores the result under key with the given TTL, and
// returns it; a fetch failure is propagated and nothing is cached.
// The second return reports whether the value came from the cache.
func (c *Cache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) (json.RawMessage, bool, error) {
	hit := false
	v, err, _ := c.group.Do(key, func() (any, error) {
		if item := c.items.Get(key); item != nil {
			hit = true
			return item.Value(), nil
		}
		val, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.items.Set(key, val, ttl)
		return val, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(json.RawMessage), hit, nil
}

// Flush removes every entry immediately and unconditionally.
func (c *Cache) Flush() {
	c.items.DeleteAll()
}

// Keys returns the keys of the live entries.
func (c *Cache) Keys() []string {
	keys := c.items.Keys()
	if keys == nil {
		keys = []string{}
	}
	return keys
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.items.Len()
}

// Stats returns a snapshot of hit/miss counters and the live entry count.
func (c *Cache) Stats() Stats {
	m := c.items.Metrics()
	s := Stats{
		Hits:       m.Hits,
		Misses:     m.Misses,
		Insertions: m.Insertions,
		Evictions:  m.Evictions,
		Entries:    c.items.Len(),
	}
	if total := m.Hits + m.Misses; total > 0 {
		s.HitRate = float64(m.Hits) / float64(total)
	}
	return s
}
