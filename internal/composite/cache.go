package composite

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss signals an absent or expired entry.
var ErrCacheMiss = errors.New("cache miss")

// ViewCache stores composed views as opaque JSON payloads with a TTL. Entries
// are key-level isolated; no global lock is implied by the contract.
type ViewCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

const cachePrefix = "composite:v1:"

// RedisCache is the production ViewCache.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache builds a cache over an established Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the payload for key, or ErrCacheMiss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := c.client.Get(ctx, cachePrefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Set stores the payload under key for ttl.
func (c *RedisCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return c.client.Set(ctx, cachePrefix+key, payload, ttl).Err()
}

type memoryCacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryCache is the dev/test ViewCache. Expiry is checked on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	now     func() time.Time
}

// NewMemoryCache builds an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryCacheEntry),
		now:     time.Now,
	}
}

// Get returns the payload for key, or ErrCacheMiss when absent or expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, ErrCacheMiss
	}
	return entry.payload, nil
}

// Set stores the payload under key for ttl.
func (c *MemoryCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryCacheEntry{payload: payload, expiresAt: c.now().Add(ttl)}
	return nil
}
