// Package cache provides the Redis read-through cache used by the
// analytics query planner. Cache outage degrades the read path silently
// rather than failing it.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"llmobservatory/internal/observability"
)

// Cache wraps a Redis client with the discipline the query planner
// expects: Get/Set never return a hard error for connectivity failures,
// they simply report a miss so the caller falls through to a direct
// query.
type Cache struct {
	rdb     *redis.Client
	enabled bool
	logger  zerolog.Logger
}

// New constructs a Cache against addr. enabled false disables the cache
// entirely (every Get is a miss, every Set a no-op), matching
// config.CacheConfig.Enabled.
func New(addr string, enabled bool) *Cache {
	var rdb *redis.Client
	if enabled {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
	}
	return &Cache{rdb: rdb, enabled: enabled, logger: observability.For("cache")}
}

// Get returns the raw cached value and true on a hit. Any Redis error,
// including a down server, is treated as a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache get failed, degrading to direct query")
		}
		return "", false
	}
	return val, true
}

// Set stores value under key with the given TTL. Failures are logged and
// swallowed; a write-through miss never fails the caller's request.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if !c.enabled {
		return
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// Ping reports whether the cache backend is reachable, used by the
// readiness endpoint when caching is enabled.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Enabled reports whether caching is turned on.
func (c *Cache) Enabled() bool { return c.enabled }
