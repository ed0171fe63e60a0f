// Package routing computes the visiting order of pickup and dropoff stops for
// a single delivery agent.
//
// Two interchangeable strategies are provided: PrecedenceTSP, an exact
// bitmask dynamic program for small batches, and GreedyHeuristic, a fast
// wait-time driven heuristic for batches too large to search exhaustively.
// Optimizer is the facade callers hold; it delegates to whichever strategy is
// currently set.
package routing

import (
	"fmt"

	"delivery-route-optimizer/internal/domain"
)

// RouteStrategy produces an ordered stop sequence that starts at start and
// visits the pickup and dropoff of every order.
//
// A missing start or an empty order batch fails with domain.ErrInvalidInput
// before any work is done. On success the route has 1+2*len(orders) stops.
type RouteStrategy interface {
	FindOptimalRoute(start domain.Stop, orders []domain.Order) (domain.Route, error)
}

func validateInput(start domain.Stop, orders []domain.Order) error {
	if start.IsZero() {
		return fmt.Errorf("%w: start stop is required", domain.ErrInvalidInput)
	}
	if len(orders) == 0 {
		return fmt.Errorf("%w: order batch must not be empty", domain.ErrInvalidInput)
	}
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// StrategyName returns a short label for s, used in logs and metrics.
func StrategyName(s RouteStrategy) string {
	if n, ok := s.(fmt.Stringer); ok {
		return n.String()
	}
	return fmt.Sprintf("%T", s)
}
