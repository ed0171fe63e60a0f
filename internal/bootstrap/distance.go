// Package bootstrap builds adapters from configuration for the cmd binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"delivery-route-optimizer/internal/adapters/cache"
	"delivery-route-optimizer/internal/adapters/distance"
	"delivery-route-optimizer/internal/config"
	"delivery-route-optimizer/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DistanceSource returns the oracle source selected by cfg.DistanceProvider.
// db is only used by the sql cache and may be nil otherwise. The returned
// close func releases any client opened here.
func DistanceSource(ctx context.Context, cfg config.Config, db *sql.DB) (ports.DistanceOracleSource, func(), error) {
	noop := func() {}

	switch cfg.DistanceProvider {
	case "", "haversine":
		log.Info().Str("provider", "haversine").Msg("distance source ready")
		return distance.StaticSource{Oracle: distance.Haversine{}}, noop, nil
	case "ors":
	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown distance provider %q", cfg.DistanceProvider)
	}

	distanceCache, closeCache, err := DistanceCache(ctx, cfg, db)
	if err != nil {
		return nil, noop, err
	}

	opts := []distance.ORSOption{distance.WithRatePerMinute(cfg.ORSRatePerMinute)}
	if distanceCache != nil {
		opts = append(opts, distance.WithCache(distanceCache))
	}
	provider, err := distance.NewORSDistanceProvider(cfg.ORSAPIKey, opts...)
	if err != nil {
		closeCache()
		return nil, noop, fmt.Errorf("bootstrap: %w", err)
	}

	log.Info().Str("provider", "ors").Str("cache", cfg.DistanceCache).Msg("distance source ready")
	return distance.MatrixSource{Provider: provider, Fallback: distance.Haversine{}}, closeCache, nil
}

// DistanceCache returns the cache selected by cfg.DistanceCache, or nil for
// "none".
func DistanceCache(ctx context.Context, cfg config.Config, db *sql.DB) (ports.DistanceCache, func(), error) {
	noop := func() {}

	switch cfg.DistanceCache {
	case "", "none":
		return nil, noop, nil
	case "sql":
		if db == nil {
			return nil, noop, errors.New("bootstrap: sql distance cache needs a database")
		}
		return cache.NewSQLDistanceCache(db, cfg.DistanceCacheTTL), noop, nil
	case "redis":
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("bootstrap: ping redis: %w", err)
		}
		return cache.NewRedisDistanceCache(rdb, cfg.DistanceCacheTTL), func() { _ = rdb.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown distance cache %q", cfg.DistanceCache)
	}
}
