package composite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache, _ := newRedisCache(t)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "dashboard:cl-1"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss on empty cache, got %v", err)
	}

	payload := []byte(`{"degraded":false}`)
	if err := cache.Set(ctx, "dashboard:cl-1", payload, 30*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := cache.Get(ctx, "dashboard:cl-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch: %s", got)
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "dashboard:cl-1", []byte("{}"), 30*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	mr.FastForward(31 * time.Second)

	if _, err := cache.Get(ctx, "dashboard:cl-1"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after TTL, got %v", err)
	}
}

func TestRedisCacheKeysAreIsolated(t *testing.T) {
	cache, _ := newRedisCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "dashboard:cl-1", []byte("one"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.Set(ctx, "dashboard:cl-2", []byte("two"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := cache.Get(ctx, "dashboard:cl-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "one" {
		t.Fatalf("keys bled into each other: %s", got)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache()
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("v"), 30*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := cache.Get(ctx, "k"); err != nil {
		t.Fatalf("get before expiry: %v", err)
	}

	clock = clock.Add(31 * time.Second)
	if _, err := cache.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
}
