package sharing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func setupCacheRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestAccessCache_LocalOnly(t *testing.T) {
	cache := NewAccessCache(nil, 16, time.Minute, testLogger())
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "tenant-a", "test-user-1", "test-project-1", "tenant-a:READ"); ok {
		t.Error("Expected miss on empty cache")
	}

	cache.Set(ctx, "tenant-a", "test-user-1", "test-project-1", "tenant-a:READ", true)
	cache.Set(ctx, "tenant-a", "test-user-2", "test-project-1", "tenant-a:READ", false)

	allowed, ok := cache.Get(ctx, "tenant-a", "test-user-1", "test-project-1", "tenant-a:READ")
	if !ok || !allowed {
		t.Errorf("Expected cached allow, got %v, %v", allowed, ok)
	}
	allowed, ok = cache.Get(ctx, "tenant-a", "test-user-2", "test-project-1", "tenant-a:READ")
	if !ok || allowed {
		t.Errorf("Expected cached deny, got %v, %v", allowed, ok)
	}

	cache.Invalidate(ctx, "tenant-a")
	if _, ok := cache.Get(ctx, "tenant-a", "test-user-1", "test-project-1", "tenant-a:READ"); ok {
		t.Error("Expected miss after invalidation")
	}
}

func TestAccessCache_RedisTier(t *testing.T) {
	client := setupCacheRedis(t)
	ctx := context.Background()

	writer := NewAccessCache(client, 16, time.Minute, testLogger())
	writer.Set(ctx, "tenant-a", "test-user-1", "test-project-1", "tenant-a:READ", true)

	// A fresh instance has an empty local tier, so the hit must come
	// from Redis.
	reader := NewAccessCache(client, 16, time.Minute, testLogger())
	allowed, ok := reader.Get(ctx, "tenant-a", "test-user-1", "test-project-1", "tenant-a:READ")
	if !ok || !allowed {
		t.Errorf("Expected hit from shared tier, got %v, %v", allowed, ok)
	}
}

func TestAccessCache_InvalidateBumpsGeneration(t *testing.T) {
	client := setupCacheRedis(t)
	ctx := context.Background()
	cache := NewAccessCache(client, 16, time.Minute, testLogger())

	cache.Set(ctx, "tenant-a", "test-user-1", "test-project-1", "tenant-a:READ", true)
	cache.Set(ctx, "tenant-b", "test-user-1", "other-project", "tenant-b:READ", true)

	cache.Invalidate(ctx, "tenant-a")

	if _, ok := cache.Get(ctx, "tenant-a", "test-user-1", "test-project-1", "tenant-a:READ"); ok {
		t.Error("Expected miss after generation bump")
	}
	if _, ok := cache.Get(ctx, "tenant-b", "test-user-1", "other-project", "tenant-b:READ"); !ok {
		t.Error("Expected other domains to keep their entries")
	}

	cache.Set(ctx, "tenant-a", "test-user-1", "test-project-1", "tenant-a:READ", true)
	allowed, ok := cache.Get(ctx, "tenant-a", "test-user-1", "test-project-1", "tenant-a:READ")
	if !ok || !allowed {
		t.Errorf("Expected hit under the new generation, got %v, %v", allowed, ok)
	}
}

func TestAccessCache_RedisOutageDegrades(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()
	cache := NewAccessCache(client, 16, time.Minute, testLogger())

	cache.Set(ctx, "tenant-a", "test-user-1", "test-project-1", "tenant-a:READ", true)
	mr.Close()

	// The generation lookup fails, so reads report a miss and writes
	// are dropped instead of erroring.
	if _, ok := cache.Get(ctx, "tenant-a", "test-user-1", "test-project-1", "tenant-a:READ"); ok {
		t.Error("Expected miss while Redis is down")
	}
	cache.Set(ctx, "tenant-a", "test-user-1", "test-project-1", "tenant-a:READ", true)
	cache.Invalidate(ctx, "tenant-a")
}
