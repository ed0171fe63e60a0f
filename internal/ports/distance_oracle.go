package ports

import (
	"context"

	"delivery-route-optimizer/internal/domain"
)

// DistanceOracle answers the travel distance between two stops.
// Implementations are deterministic and never fail: anything that needs I/O
// is resolved before the oracle is handed to a routing strategy.
// Symmetry is not assumed.
type DistanceOracle interface {
	Distance(a, b domain.Stop) float64
}

// DistanceOracleSource resolves an oracle able to answer every pair among
// the given stops. Remote-backed sources prefetch here.
type DistanceOracleSource interface {
	OracleFor(ctx context.Context, stops []domain.Stop) (DistanceOracle, error)
}
