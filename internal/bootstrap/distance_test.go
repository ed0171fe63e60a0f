package bootstrap

import (
	"context"
	"testing"
	"time"

	"delivery-route-optimizer/internal/adapters/cache"
	"delivery-route-optimizer/internal/adapters/distance"
	"delivery-route-optimizer/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceSourceHaversine(t *testing.T) {
	src, closeFn, err := DistanceSource(context.Background(), config.Config{DistanceProvider: "haversine"}, nil)
	require.NoError(t, err)
	defer closeFn()

	static, ok := src.(distance.StaticSource)
	require.True(t, ok)
	assert.IsType(t, distance.Haversine{}, static.Oracle)
}

func TestDistanceSourceORSWithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Config{
		DistanceProvider: "ors",
		ORSAPIKey:        "key",
		DistanceCache:    "redis",
		RedisURL:         "redis://" + mr.Addr() + "/0",
		DistanceCacheTTL: time.Hour,
	}

	src, closeFn, err := DistanceSource(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer closeFn()

	assert.IsType(t, distance.MatrixSource{}, src)
}

func TestDistanceCacheSelection(t *testing.T) {
	c, _, err := DistanceCache(context.Background(), config.Config{DistanceCache: "none"}, nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	_, _, err = DistanceCache(context.Background(), config.Config{DistanceCache: "sql"}, nil)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	c, closeFn, err := DistanceCache(context.Background(), config.Config{DistanceCache: "redis", RedisURL: "redis://" + mr.Addr()}, nil)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &cache.RedisDistanceCache{}, c)
}

func TestDistanceSourceRejectsUnknownProvider(t *testing.T) {
	_, _, err := DistanceSource(context.Background(), config.Config{DistanceProvider: "osrm"}, nil)
	assert.Error(t, err)
}
