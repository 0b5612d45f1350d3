package sharing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/warden/pkg/observability"
)

// AccessCache caches access-check results in a small in-process LRU
// backed by Redis, so repeated checks skip the chain walk. Entries carry
// a per-domain generation in their key; invalidation bumps the
// generation instead of scanning for keys, and stale entries age out via
// TTL. A Redis outage degrades to the local tier only.
type AccessCache struct {
	local  *expirable.LRU[string, bool]
	client *redis.Client
	ttl    time.Duration
	logger *observability.Logger

	mu       sync.Mutex
	localGen map[string]int64
}

// NewAccessCache creates an access cache. client may be nil to run with
// only the in-process tier.
func NewAccessCache(client *redis.Client, size int, ttl time.Duration, logger *observability.Logger) *AccessCache {
	return &AccessCache{
		local:    expirable.NewLRU[string, bool](size, nil, ttl),
		client:   client,
		ttl:      ttl,
		logger:   logger,
		localGen: make(map[string]int64),
	}
}

func accessGenKey(domainID string) string {
	return "warden:accessgen:" + domainID
}

func (c *AccessCache) generation(ctx context.Context, domainID string) (int64, bool) {
	if c.client == nil {
		c.mu.Lock()
		gen := c.localGen[domainID]
		c.mu.Unlock()
		return gen, true
	}
	gen, err := c.client.Get(ctx, accessGenKey(domainID)).Int64()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		c.logger.WithError(err).Debug("access cache generation lookup failed")
		return 0, false
	}
	return gen, true
}

func accessKey(domainID string, gen int64, userID, entityID, permissionTypeID string) string {
	return fmt.Sprintf("warden:access:%s:%d:%s:%s:%s", domainID, gen, userID, entityID, permissionTypeID)
}

// Get returns a cached check result and whether one was found
func (c *AccessCache) Get(ctx context.Context, domainID, userID, entityID, permissionTypeID string) (bool, bool) {
	gen, ok := c.generation(ctx, domainID)
	if !ok {
		return false, false
	}
	key := accessKey(domainID, gen, userID, entityID, permissionTypeID)

	if allowed, ok := c.local.Get(key); ok {
		return allowed, true
	}
	if c.client == nil {
		return false, false
	}

	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, false
	}
	if err != nil {
		c.logger.WithError(err).Debug("access cache read failed")
		return false, false
	}
	allowed := value == "1"
	c.local.Add(key, allowed)
	return allowed, true
}

// Set stores a check result in both tiers
func (c *AccessCache) Set(ctx context.Context, domainID, userID, entityID, permissionTypeID string, allowed bool) {
	gen, ok := c.generation(ctx, domainID)
	if !ok {
		return
	}
	key := accessKey(domainID, gen, userID, entityID, permissionTypeID)
	c.local.Add(key, allowed)

	if c.client == nil {
		return
	}
	value := "0"
	if allowed {
		value = "1"
	}
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("access cache write failed")
	}
}

// Invalidate drops every cached result for a domain by advancing its
// generation. Called after any grant, membership, group or entity-parent
// mutation.
func (c *AccessCache) Invalidate(ctx context.Context, domainID string) {
	c.mu.Lock()
	c.localGen[domainID]++
	c.mu.Unlock()

	if c.client == nil {
		return
	}
	if err := c.client.Incr(ctx, accessGenKey(domainID)).Err(); err != nil {
		c.logger.WithError(err).Warn("access cache invalidation failed")
	}
}
