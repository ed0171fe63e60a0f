package ports

import (
	"context"

	"delivery-route-optimizer/internal/domain"
)

// Distance and travel duration between two locations, as reported by a
// routing backend.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// Contract for retrieving road distances from one origin to many destinations.
// Keys of the returned map are domain.Coordinates.Key() values.
type DistanceMatrixProvider interface {
	GetDistances(ctx context.Context, origin domain.Coordinates, destinations []domain.Coordinates) (map[string]DistanceResult, error)
}
