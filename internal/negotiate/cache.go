package negotiate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

// Entry is a cached negotiation result in caps text form.
type Entry struct {
	Common string `json:"common"`
	Fixed  string `json:"fixed"`
}

// Cache stores negotiation results by negotiation key (see
// ir.NegotiationKey). Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the entry for key and true, or false on a miss.
	Get(ctx context.Context, key string) (Entry, bool)

	// Set stores an entry.
	Set(ctx context.Context, key string, e Entry) error

	// Stats returns cache statistics for monitoring.
	Stats() map[string]any
}

// MemoryCache is an in-process Cache without expiry.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

// Get looks up key.
func (c *MemoryCache) Get(_ context.Context, key string) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		c.misses.Add(1)
		return Entry{}, false
	}
	c.hits.Add(1)
	return e, true
}

// Set stores e under key.
func (c *MemoryCache) Set(_ context.Context, key string, e Entry) error {
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Stats returns hit and miss counts.
func (c *MemoryCache) Stats() map[string]any {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	return stats(c.hits.Load(), c.misses.Load(), map[string]any{"entries": size})
}

// Defaults for RedisCache.
const (
	DefaultCacheTTL    = time.Hour
	DefaultRedisPrefix = "capnego:negotiation:"
)

// RedisCache shares negotiation results between processes through Redis.
// Lookup failures degrade to misses; a negotiation never fails because the
// cache is unavailable.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string

	hits   atomic.Int64
	misses atomic.Int64
}

// RedisCacheOption customizes a RedisCache.
type RedisCacheOption func(*RedisCache)

// WithTTL sets how long entries live in Redis. Default is DefaultCacheTTL.
func WithTTL(ttl time.Duration) RedisCacheOption {
	return func(c *RedisCache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the Redis key prefix. Default is DefaultRedisPrefix.
func WithPrefix(prefix string) RedisCacheOption {
	return func(c *RedisCache) {
		c.prefix = prefix
	}
}

// NewRedisCache creates a Redis-backed cache.
//
//	cache := NewRedisCache(client,
//	    WithTTL(10*time.Minute),
//	    WithPrefix("pipeline-a:"),
//	)
func NewRedisCache(client *redis.Client, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		client: client,
		ttl:    DefaultCacheTTL,
		prefix: DefaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get reads key from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) (Entry, bool) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		// redis.Nil is a plain miss; other errors degrade to one.
		c.misses.Add(1)
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		c.misses.Add(1)
		return Entry{}, false
	}

	c.hits.Add(1)
	return e, true
}

// Set writes e under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry in Redis: %w", err)
	}
	return nil
}

// Stats returns hit and miss counts.
func (c *RedisCache) Stats() map[string]any {
	return stats(c.hits.Load(), c.misses.Load(), map[string]any{"prefix": c.prefix, "ttl": c.ttl.String()})
}

func stats(hits, misses int64, extra map[string]any) map[string]any {
	total := hits + misses
	out := map[string]any{
		"hits":          hits,
		"misses":        misses,
		"total_lookups": total,
	}
	if total > 0 {
		out["hit_rate"] = float64(hits) / float64(total)
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
