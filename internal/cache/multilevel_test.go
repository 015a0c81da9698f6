package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type boardEntry struct {
	TaskIDs []uint `json:"task_ids"`
}

func TestMultiLevelCache_MemoryOnly(t *testing.T) {
	c := NewMultiLevelCache(nil, nil)
	ctx := context.Background()

	var got boardEntry
	assert.ErrorIs(t, c.Get(ctx, "board:tasks", &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "board:tasks", boardEntry{TaskIDs: []uint{1, 2}}, time.Minute))
	require.NoError(t, c.Get(ctx, "board:tasks", &got))
	assert.Equal(t, []uint{1, 2}, got.TaskIDs)

	require.NoError(t, c.Delete(ctx, "board:tasks"))
	assert.ErrorIs(t, c.Get(ctx, "board:tasks", &got), ErrCacheMiss)

	stats := c.metrics.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.NoError(t, c.Health(ctx))
}

func TestMultiLevelCache_ValuesAreCopied(t *testing.T) {
	c := NewMultiLevelCache(nil, nil)
	ctx := context.Background()

	original := boardEntry{TaskIDs: []uint{1}}
	require.NoError(t, c.Set(ctx, "k", original, time.Minute))
	original.TaskIDs[0] = 99

	var got boardEntry
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, uint(1), got.TaskIDs[0])
}

func TestMultiLevelCache_PromotesFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	config := DefaultCacheConfig()
	config.Addr = mr.Addr()
	redisCache := NewRedisCache(NewRedisClient(config), "tb:")
	ctx := context.Background()

	writer := NewMultiLevelCache(redisCache, nil)
	require.NoError(t, writer.Set(ctx, "board:user:7", boardEntry{TaskIDs: []uint{3}}, time.Minute))
	assert.True(t, mr.Exists("tb:board:user:7"))

	// a second process shares redis but not memory
	reader := NewMultiLevelCache(redisCache, nil)
	var got boardEntry
	require.NoError(t, reader.Get(ctx, "board:user:7", &got))
	assert.Equal(t, []uint{3}, got.TaskIDs)
	_, inMemory := reader.l1.Get("board:user:7")
	assert.True(t, inMemory)

	require.NoError(t, writer.DeletePattern(ctx, "board:user:*"))
	assert.False(t, mr.Exists("tb:board:user:7"))
}

func TestMultiLevelCache_DegradesWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	config := DefaultCacheConfig()
	config.Addr = mr.Addr()
	config.MaxRetries = -1
	config.DialTimeout = 100 * time.Millisecond
	c := NewMultiLevelCache(NewRedisCache(NewRedisClient(config), "tb:"), nil)
	ctx := context.Background()

	mr.Close()

	var got boardEntry
	for i := 0; i < 5; i++ {
		err := c.Get(ctx, "missing", &got)
		assert.Error(t, err)
	}
	assert.Equal(t, CircuitBreakerOpen, c.breaker.GetState())

	err := c.Get(ctx, "missing", &got)
	assert.True(t, errors.Is(err, ErrCacheDown))

	// memory level still serves writes and reads
	assert.ErrorIs(t, c.Set(ctx, "k", boardEntry{TaskIDs: []uint{5}}, time.Minute), ErrCacheDown)
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, []uint{5}, got.TaskIDs)
}

func TestMemoryCache_ExpiryAndPattern(t *testing.T) {
	m := NewMemoryCache()
	now := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return now }

	m.Set("a:1", []byte(`1`), time.Second)
	m.Set("a:2", []byte(`2`), 0)
	m.Set("b:1", []byte(`3`), 0)

	_, ok := m.Get("a:1")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = m.Get("a:1")
	assert.False(t, ok)

	m.DeletePattern("a:*")
	_, ok = m.Get("a:2")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestCacheMetrics_HitRate(t *testing.T) {
	m := NewCacheMetrics()
	assert.Equal(t, 0.0, m.HitRate())

	m.RecordHit()
	m.RecordHit()
	m.RecordHit()
	m.RecordMiss()
	assert.Equal(t, 75.0, m.HitRate())

	m.Reset()
	assert.Equal(t, int64(0), m.GetStats().Hits)
}
