package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Stats() map[string]interface{}
	Health(ctx context.Context) error
	Close() error
}

// l1TTLCap bounds how long a value promoted from redis stays in memory, so
// other replicas' invalidations are observed within that window.
const l1TTLCap = 30 * time.Second

// MultiLevelCache fronts an optional redis level with an in-memory level.
// Redis calls go through a circuit breaker; a tripped breaker degrades the
// cache to memory only.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      *RedisCache
	breaker *CircuitBreaker
	metrics *CacheMetrics
	logger  *zap.Logger
}

func NewMultiLevelCache(redisCache *RedisCache, logger *zap.Logger) *MultiLevelCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MultiLevelCache{
		l1:      NewMemoryCache(),
		l2:      redisCache,
		breaker: NewCircuitBreaker("redis-cache", nil, logger),
		metrics: NewCacheMetrics(),
		logger:  logger,
	}
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.metrics.RecordError()
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	c.l1.Set(key, data, minTTL(ttl, l1TTLCap))
	c.metrics.RecordSet()

	if c.l2 == nil {
		return nil
	}
	return c.remote(func() error {
		return c.l2.Set(ctx, key, json.RawMessage(data), ttl)
	})
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	if data, found := c.l1.Get(key); found {
		c.metrics.RecordHit()
		return json.Unmarshal(data, dest)
	}

	if c.l2 == nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	var raw json.RawMessage
	err := c.remote(func() error {
		err := c.l2.Get(ctx, key, &raw)
		if errors.Is(err, ErrCacheMiss) {
			// a miss is not a redis failure
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if raw == nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	c.metrics.RecordHit()
	c.l1.Set(key, raw, l1TTLCap)
	return json.Unmarshal(raw, dest)
}

func (c *MultiLevelCache) Delete(ctx context.Context, keys ...string) error {
	c.l1.Delete(keys...)
	c.metrics.RecordDelete()

	if c.l2 == nil {
		return nil
	}
	return c.remote(func() error {
		return c.l2.Delete(ctx, keys...)
	})
}

func (c *MultiLevelCache) DeletePattern(ctx context.Context, pattern string) error {
	c.l1.DeletePattern(pattern)
	c.metrics.RecordDelete()

	if c.l2 == nil {
		return nil
	}
	return c.remote(func() error {
		return c.l2.DeletePattern(ctx, pattern)
	})
}

func (c *MultiLevelCache) remote(fn func() error) error {
	err := c.breaker.Execute(fn)
	if err == nil {
		return nil
	}
	c.metrics.RecordError()
	if errors.Is(err, ErrCircuitBreakerOpen) {
		return ErrCacheDown
	}
	c.logger.Warn("redis cache operation failed", zap.Error(err))
	return err
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	metrics := c.metrics.GetStats()
	stats := map[string]interface{}{
		"l1":       c.l1.Stats(),
		"metrics":  metrics,
		"hit_rate": c.metrics.HitRate(),
		"breaker":  c.breaker.GetStats(),
	}

	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}

	return stats
}

func (c *MultiLevelCache) Health(ctx context.Context) error {
	if c.l2 != nil {
		return c.l2.Health(ctx)
	}

	return nil
}

func (c *MultiLevelCache) Close() error {
	if c.l2 != nil {
		return c.l2.Close()
	}

	return nil
}

func minTTL(ttl, limit time.Duration) time.Duration {
	if ttl <= 0 || ttl > limit {
		return limit
	}
	return ttl
}
