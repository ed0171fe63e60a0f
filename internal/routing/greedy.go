package routing

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/ports"

	"github.com/rs/zerolog/log"
)

// GreedyHeuristic plans a route one order at a time.
//
// At each step it picks the order whose pickup the agent would reach with
// the least waiting for the item to become ready, then goes straight on to
// that order's dropoff. It runs in O(k²) for k orders and never guarantees
// optimality; it is the fallback for batches too large for PrecedenceTSP.
type GreedyHeuristic struct {
	oracle ports.DistanceOracle
}

func NewGreedyHeuristic(oracle ports.DistanceOracle) *GreedyHeuristic {
	return &GreedyHeuristic{oracle: oracle}
}

func (g *GreedyHeuristic) String() string { return "greedy" }

func (g *GreedyHeuristic) travelMinutes(from, to domain.Stop) float64 {
	return TravelMinutes(g.oracle.Distance(from, to))
}

// FindOptimalRoute implements RouteStrategy.
//
// If orders remain but none is eligible, the route built so far is returned
// together with an error wrapping domain.ErrNoFeasibleTransition. This only
// happens when a pickup stop was already visited as part of another order.
func (g *GreedyHeuristic) FindOptimalRoute(start domain.Stop, orders []domain.Order) (domain.Route, error) {
	if err := validateInput(start, orders); err != nil {
		return nil, fmt.Errorf("greedy route: %w", err)
	}

	// Seed iteration order by readiness: the later of prep time and the
	// time needed to reach the pickup. The caller's slice is left untouched.
	remaining := slices.Clone(orders)
	readiness := func(o domain.Order) float64 {
		return math.Max(o.ReadyDuration.Minutes(), g.travelMinutes(start, o.Pickup))
	}
	slices.SortStableFunc(remaining, func(a, b domain.Order) int {
		return cmp.Compare(readiness(a), readiness(b))
	})

	route := make(domain.Route, 0, 1+2*len(orders))
	route = append(route, start)

	visited := make(map[domain.Stop]struct{}, 2*len(orders))
	current := start
	currentTime := 0.0

	log.Debug().Str("strategy", "greedy").Str("start", start.Name).Int("orders", len(orders)).Msg("starting route")

	for len(remaining) > 0 {
		best := -1
		minWait := math.MaxFloat64

		// Select next order by minimum wait at its pickup (greedy step).
		// Strict comparison keeps the first candidate on ties.
		for i, o := range remaining {
			if _, seen := visited[o.Pickup]; seen {
				continue
			}
			arrival := currentTime + g.travelMinutes(current, o.Pickup)
			wait := math.Max(0, o.ReadyDuration.Minutes()-arrival)
			if wait < minWait {
				minWait = wait
				best = i
			}
		}

		if best < 0 {
			return route, fmt.Errorf(
				"greedy route: %w: %d orders left after %d stops",
				domain.ErrNoFeasibleTransition, len(remaining), len(route),
			)
		}
		next := remaining[best]

		currentTime += g.travelMinutes(current, next.Pickup)
		route = append(route, next.Pickup)
		visited[next.Pickup] = struct{}{}
		log.Debug().Str("order_id", next.ID).Str("stop", next.Pickup.Name).Float64("t_min", currentTime).Msg("pickup")

		currentTime += g.travelMinutes(next.Pickup, next.Dropoff)
		route = append(route, next.Dropoff)
		visited[next.Dropoff] = struct{}{}
		log.Debug().Str("order_id", next.ID).Str("stop", next.Dropoff.Name).Float64("t_min", currentTime).Msg("dropoff")

		remaining = slices.Delete(remaining, best, best+1)
		current = next.Dropoff
	}

	return route, nil
}
