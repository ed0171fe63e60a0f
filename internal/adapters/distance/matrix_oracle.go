package distance

import (
	"context"
	"fmt"
	"sync"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"

	"golang.org/x/sync/errgroup"
)

// MatrixOracle answers distances in kilometres from a prefetched table.
// Pairs absent from the table are delegated to the fallback oracle.
type MatrixOracle struct {
	km       map[string]map[string]float64
	fallback ports.DistanceOracle
}

func NewMatrixOracle(fallback ports.DistanceOracle) *MatrixOracle {
	if fallback == nil {
		fallback = Haversine{}
	}
	return &MatrixOracle{km: map[string]map[string]float64{}, fallback: fallback}
}

// Set records the distance in kilometres from one point to another.
func (m *MatrixOracle) Set(from, to domain.Coordinates, km float64) {
	row, ok := m.km[from.Key()]
	if !ok {
		row = map[string]float64{}
		m.km[from.Key()] = row
	}
	row[to.Key()] = km
}

func (m *MatrixOracle) Distance(a, b domain.Stop) float64 {
	from, to := a.Coordinates.Key(), b.Coordinates.Key()
	if from == to {
		return 0
	}
	if km, ok := m.km[from][to]; ok {
		return km
	}
	return m.fallback.Distance(a, b)
}

// StaticSource hands out the same oracle for every request.
type StaticSource struct {
	Oracle ports.DistanceOracle
}

func (s StaticSource) OracleFor(ctx context.Context, stops []domain.Stop) (ports.DistanceOracle, error) {
	return s.Oracle, nil
}

// MatrixSource prefetches road distances for every pair of stops from a
// matrix provider, one origin row per request, before routing starts.
type MatrixSource struct {
	Provider    ports.DistanceMatrixProvider
	Fallback    ports.DistanceOracle
	Concurrency int
}

type matrixRow struct {
	origin  domain.Coordinates
	results map[string]ports.DistanceResult
}

func (s MatrixSource) OracleFor(ctx context.Context, stops []domain.Stop) (_ ports.DistanceOracle, err error) {
	defer obs.Time(ctx, "distance.MatrixSource.OracleFor")(&err)

	points := uniquePoints(stops)
	oracle := NewMatrixOracle(s.Fallback)
	if len(points) < 2 {
		return oracle, nil
	}

	limit := s.Concurrency
	if limit <= 0 {
		limit = 5
	}

	var (
		mu   sync.Mutex
		rows = make([]matrixRow, 0, len(points))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, origin := range points {
		origin := origin
		targets := make([]domain.Coordinates, 0, len(points)-1)
		for j, t := range points {
			if j != i {
				targets = append(targets, t)
			}
		}

		g.Go(func() error {
			res, err := s.Provider.GetDistances(gctx, origin, targets)
			if err != nil {
				return fmt.Errorf("prefetch distances from %s: %w", origin.Key(), err)
			}

			mu.Lock()
			rows = append(rows, matrixRow{origin: origin, results: res})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, row := range rows {
		for _, t := range points {
			if t == row.origin {
				continue
			}
			r, ok := row.results[t.Key()]
			if !ok {
				return nil, fmt.Errorf("prefetch distances: missing pair %s -> %s", row.origin.Key(), t.Key())
			}
			oracle.Set(row.origin, t, float64(r.DistanceMeters)/1000)
		}
	}

	return oracle, nil
}

func uniquePoints(stops []domain.Stop) []domain.Coordinates {
	seen := make(map[string]struct{}, len(stops))
	out := make([]domain.Coordinates, 0, len(stops))
	for _, s := range stops {
		k := s.Coordinates.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s.Coordinates)
	}
	return out
}
