package repository

import (
	"context"
	"testing"
	"time"

	"venuebook/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T) (*miniredis.Miniredis, *RedisSnapshotCache) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisSnapshotCache(client)
}

func sampleEntries() []*models.ConfirmationLogEntry {
	return []*models.ConfirmationLogEntry{
		{LogID: 1, Reference: "ref-1", CustomerName: "Alice Reyes", Status: models.StatusConfirmed},
		{LogID: 2, Reference: "ref-2", CustomerName: "Bob Cruz", Status: models.StatusConfirmed},
	}
}

func TestRedisSnapshotCacheRoundTrip(t *testing.T) {
	_, cache := setupRedisCache(t)
	ctx := context.Background()

	_, ok, err := cache.GetLog(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetLog(ctx, sampleEntries(), time.Minute))

	entries, ok, err := cache.GetLog(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, entries, 2)
	assert.Equal(t, "Alice Reyes", entries[0].CustomerName)

	require.NoError(t, cache.Invalidate(ctx))
	_, ok, err = cache.GetLog(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSnapshotCacheTTL(t *testing.T) {
	mr, cache := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetLog(ctx, sampleEntries(), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.GetLog(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySnapshotCache(t *testing.T) {
	cache := NewMemorySnapshotCache()
	ctx := context.Background()

	_, ok, err := cache.GetLog(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetLog(ctx, sampleEntries(), time.Minute))
	entries, ok, err := cache.GetLog(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, entries, 2)

	// Mutating the returned slice must not touch the cached copy.
	entries[0] = nil
	again, ok, err := cache.GetLog(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, again[0])

	require.NoError(t, cache.Invalidate(ctx))
	_, ok, err = cache.GetLog(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySnapshotCacheTTL(t *testing.T) {
	cache := NewMemorySnapshotCache()
	ctx := context.Background()

	require.NoError(t, cache.SetLog(ctx, sampleEntries(), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok, err := cache.GetLog(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFailoverSnapshotCacheFallsBack(t *testing.T) {
	mr, primary := setupRedisCache(t)
	fallback := NewMemorySnapshotCache()
	logger := zerolog.Nop()
	cache := NewFailoverSnapshotCache(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, cache.SetLog(ctx, sampleEntries(), time.Minute))

	// Kill the primary; reads must drop to the fallback.
	mr.Close()
	require.NoError(t, cache.SetLog(ctx, sampleEntries(), time.Minute))

	entries, ok, err := cache.GetLog(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, entries, 2)
}

func TestFailoverSnapshotCacheRecovers(t *testing.T) {
	mr, primary := setupRedisCache(t)
	fallback := NewMemorySnapshotCache()
	logger := zerolog.Nop()
	cache := NewFailoverSnapshotCache(primary, fallback, &logger)
	cache.cooldown = 0
	ctx := context.Background()

	mr.SetError("connection refused")
	_, _, err := cache.GetLog(ctx)
	require.NoError(t, err)
	assert.True(t, cache.isDown.Load())

	mr.SetError("")
	require.NoError(t, primary.SetLog(ctx, sampleEntries(), time.Minute))

	entries, ok, err := cache.GetLog(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, entries, 2)
	assert.False(t, cache.isDown.Load())
}

func TestFailoverInvalidateClearsBothLayers(t *testing.T) {
	_, primary := setupRedisCache(t)
	fallback := NewMemorySnapshotCache()
	logger := zerolog.Nop()
	cache := NewFailoverSnapshotCache(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, primary.SetLog(ctx, sampleEntries(), time.Minute))
	require.NoError(t, fallback.SetLog(ctx, sampleEntries(), time.Minute))

	require.NoError(t, cache.Invalidate(ctx))

	_, ok, err := primary.GetLog(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = fallback.GetLog(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFailoverInvalidateReachesDownedPrimary(t *testing.T) {
	mr, primary := setupRedisCache(t)
	fallback := NewMemorySnapshotCache()
	logger := zerolog.Nop()
	cache := NewFailoverSnapshotCache(primary, fallback, &logger)
	ctx := context.Background()

	// A snapshot written before the outage lives in Redis.
	require.NoError(t, primary.SetLog(ctx, sampleEntries(), time.Minute))

	mr.SetError("connection refused")
	_, _, err := cache.GetLog(ctx)
	require.NoError(t, err)
	require.True(t, cache.isDown.Load())

	// Redis comes back, but the failover still considers it down.
	mr.SetError("")
	require.NoError(t, cache.Invalidate(ctx))

	// The pre-outage copy must not survive to serve stale data on recovery.
	_, ok, err := primary.GetLog(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
