package cache

import (
	"context"
	"testing"
	"time"

	"delivery-route-optimizer/internal/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisDistanceCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisDistanceCache(rdb, ttl), mr
}

func TestRedisDistanceCacheRoundTrip(t *testing.T) {
	c, _ := newTestRedisCache(t, time.Hour)
	ctx := context.Background()

	err := c.PutMany(ctx, "12.933000,77.620000", map[string]ports.DistanceResult{
		"12.934400,77.620000": {DistanceMeters: 160, DurationSeconds: 40},
		"12.938000,77.627000": {DistanceMeters: 950, DurationSeconds: 210},
	})
	require.NoError(t, err)

	got, err := c.GetMany(ctx, "12.933000,77.620000", []string{
		"12.934400,77.620000",
		"12.938000,77.627000",
		"0.000000,0.000000",
		"12.934400,77.620000",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]ports.DistanceResult{
		"12.934400,77.620000": {DistanceMeters: 160, DurationSeconds: 40},
		"12.938000,77.627000": {DistanceMeters: 950, DurationSeconds: 210},
	}, got)
}

func TestRedisDistanceCacheExpires(t *testing.T) {
	c, mr := newTestRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.PutMany(ctx, "a", map[string]ports.DistanceResult{"b": {DistanceMeters: 1}}))
	mr.FastForward(2 * time.Minute)

	got, err := c.GetMany(ctx, "a", []string{"b"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisDistanceCacheRejectsEmptyOrigin(t *testing.T) {
	c, _ := newTestRedisCache(t, 0)
	_, err := c.GetMany(context.Background(), "", []string{"b"})
	assert.Error(t, err)
	assert.Error(t, c.PutMany(context.Background(), "", map[string]ports.DistanceResult{"b": {}}))
}

func TestDecodeResultMalformed(t *testing.T) {
	_, err := decodeResult("12")
	assert.Error(t, err)
	_, err = decodeResult("x:1")
	assert.Error(t, err)
}
