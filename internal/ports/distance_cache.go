package ports

import "context"

// Persistent cache for origin->destination distance results.
// Keys are normalized coordinate keys (domain.Coordinates.Key).
type DistanceCache interface {
	GetMany(ctx context.Context, origin string, destinations []string) (map[string]DistanceResult, error)
	PutMany(ctx context.Context, origin string, results map[string]DistanceResult) error
}
