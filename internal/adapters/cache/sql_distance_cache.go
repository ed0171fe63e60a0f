package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
)

// SQLDistanceCache is a Postgres-backed cache for origin->destination
// distance results. Entries older than TTL are ignored on read; a zero TTL
// never expires.
type SQLDistanceCache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewSQLDistanceCache(db *sql.DB, ttl time.Duration) *SQLDistanceCache {
	return &SQLDistanceCache{DB: db, TTL: ttl}
}

const selectDistancesQuery = `
SELECT destination, distance_meters, duration_seconds
FROM distance_cache
WHERE origin = $1
	AND destination = ANY($2::text[])
	AND ($3::timestamptz IS NULL OR cached_at >= $3);
`

// upsertDistancesQuery writes a whole row of results in one statement by
// zipping three parallel arrays.
const upsertDistancesQuery = `
INSERT INTO distance_cache (origin, destination, distance_meters, duration_seconds, cached_at)
SELECT $1, d.destination, d.meters, d.seconds, now()
FROM unnest($2::text[], $3::int[], $4::int[]) AS d(destination, meters, seconds)
ON CONFLICT (origin, destination) DO UPDATE
SET distance_meters = EXCLUDED.distance_meters,
	duration_seconds = EXCLUDED.duration_seconds,
	cached_at = EXCLUDED.cached_at;
`

func (s *SQLDistanceCache) check(origin string) error {
	if s.DB == nil {
		return errors.New("sql distance cache: db is nil")
	}
	if origin == "" {
		return errors.New("sql distance cache: origin must not be empty")
	}
	return nil
}

// cutoff is the oldest cached_at still served, or nil without a TTL.
func (s *SQLDistanceCache) cutoff() *time.Time {
	if s.TTL <= 0 {
		return nil
	}
	t := time.Now().Add(-s.TTL).UTC()
	return &t
}

// GetMany returns the cached results for origin among destinations. Missing
// or expired pairs are simply absent from the map.
func (s *SQLDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.cache.sql.GetMany")(&err)

	if err := s.check(origin); err != nil {
		return nil, err
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, selectDistancesQuery, origin, uniq, s.cutoff())
	if err != nil {
		return nil, fmt.Errorf("sql distance cache: select origin=%q: %w", origin, err)
	}
	defer rows.Close()

	out := make(map[string]ports.DistanceResult, len(uniq))
	for rows.Next() {
		var (
			dest string
			r    ports.DistanceResult
		)
		if err := rows.Scan(&dest, &r.DistanceMeters, &r.DurationSeconds); err != nil {
			return nil, fmt.Errorf("sql distance cache: scan: %w", err)
		}
		out[dest] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sql distance cache: rows: %w", err)
	}

	return out, nil
}

// PutMany upserts every result for origin in a single statement.
func (s *SQLDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) (err error) {
	defer obs.Time(ctx, "distance.cache.sql.PutMany")(&err)

	if err := s.check(origin); err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}

	dests := make([]string, 0, len(results))
	for dest := range results {
		if strings.TrimSpace(dest) == "" {
			return errors.New("sql distance cache: empty destination key")
		}
		dests = append(dests, dest)
	}
	// Stable order keeps lock acquisition consistent across writers.
	sort.Strings(dests)

	meters := make([]int32, len(dests))
	seconds := make([]int32, len(dests))
	for i, dest := range dests {
		meters[i] = int32(results[dest].DistanceMeters)
		seconds[i] = int32(results[dest].DurationSeconds)
	}

	if _, err := s.DB.ExecContext(ctx, upsertDistancesQuery, origin, dests, meters, seconds); err != nil {
		return fmt.Errorf("sql distance cache: upsert origin=%q: %w", origin, err)
	}
	return nil
}

func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	uniq := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k == "" {
			continue
		}
		if _, dup := seen[k]; !dup {
			seen[k] = struct{}{}
			uniq = append(uniq, k)
		}
	}
	return uniq
}
