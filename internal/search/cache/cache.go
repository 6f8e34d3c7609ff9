// Package cache adds a Redis read-through layer in front of the query
// executor. Identical in-flight computations are collapsed with
// singleflight so a cold key is evaluated once.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Harryjl046/eventsearch/pkg/config"
	pkgredis "github.com/Harryjl046/eventsearch/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "query:"

// QueryCache caches serialized query results keyed by query kind, text, and
// limit. Entries expire after the configured TTL; the index is immutable for
// the life of the process, so no other invalidation is needed.
type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache on top of an established Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get loads a cached result into dst. The boolean reports a hit.
func (c *QueryCache) Get(ctx context.Context, kind, query string, limit int, dst any) bool {
	key := c.buildKey(kind, query, limit)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return false
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "kind", kind, "query", query, "key", key)
	return true
}

// Set stores a result under the query's key with the configured TTL. Failures
// are logged and swallowed; the cache is best effort.
func (c *QueryCache) Set(ctx context.Context, kind, query string, limit int, result any) {
	key := c.buildKey(kind, query, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached raw JSON for the query, computing and
// storing it on a miss. Concurrent misses for the same key share one
// computation. The boolean reports whether the value came from the cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	kind, query string,
	limit int,
	computeFn func() (any, error),
) ([]byte, bool, error) {
	key := c.buildKey(kind, query, limit)
	if data, err := c.client.Get(ctx, key); err == nil {
		c.hits.Add(1)
		c.logger.Debug("cache hit", "kind", kind, "query", query, "key", key)
		return []byte(data), true, nil
	} else if !pkgredis.IsNilError(err) {
		c.logger.Error("cache get failed", "key", key, "error", err)
	}
	c.misses.Add(1)

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if data, err := c.client.Get(ctx, key); err == nil {
			return []byte(data), nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("marshaling result: %w", err)
		}
		if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
			c.logger.Error("cache set failed", "key", key, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]byte), false, nil
}

// Invalidate removes every cached query result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the running hit and miss counters.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) buildKey(kind, query string, limit int) string {
	raw := fmt.Sprintf("%s:%s:limit=%d", kind, query, limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
