package routing

import "delivery-route-optimizer/internal/domain"

// Optimizer is the facade callers hold to compute routes. It delegates to
// the currently set strategy and adds no logic of its own.
//
// The strategy reference is not synchronized: callers that swap strategies
// while other goroutines request routes must guard the Optimizer themselves.
type Optimizer struct {
	strategy RouteStrategy
}

func NewOptimizer(strategy RouteStrategy) *Optimizer {
	return &Optimizer{strategy: strategy}
}

// SetStrategy replaces the active strategy for subsequent calls.
func (o *Optimizer) SetStrategy(strategy RouteStrategy) {
	o.strategy = strategy
}

// Strategy returns the active strategy.
func (o *Optimizer) Strategy() RouteStrategy {
	return o.strategy
}

// OptimalRoute returns the route computed by the active strategy.
func (o *Optimizer) OptimalRoute(start domain.Stop, orders []domain.Order) (domain.Route, error) {
	return o.strategy.FindOptimalRoute(start, orders)
}
