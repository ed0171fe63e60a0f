package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/metrics"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
	"delivery-route-optimizer/internal/routing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Mode selects the routing strategy for a request.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeExact  Mode = "exact"
	ModeGreedy Mode = "greedy"
)

// DefaultMaxExactOrders is the largest batch routed exactly in auto mode.
// 8 orders is 17 stops, a table of 2^17*17 states.
const DefaultMaxExactOrders = 8

// DefaultExactOrderLimit is the largest batch the exact search accepts in
// any mode. 10 orders is 21 stops, about 400 MB of tables; every extra order
// multiplies that by more than four.
const DefaultExactOrderLimit = 10

// ParseMode accepts "", "auto", "exact" or "greedy" in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeExact, ModeGreedy:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown routing mode %q", domain.ErrInvalidInput, s)
	}
}

type Options struct {
	// MaxExactOrders bounds the exact search in auto mode. Zero means
	// DefaultMaxExactOrders.
	MaxExactOrders int

	// ExactOrderLimit rejects larger explicit exact requests and caps
	// MaxExactOrders. Zero means DefaultExactOrderLimit.
	ExactOrderLimit int
}

func (o Options) exactLimit() int {
	if o.ExactOrderLimit <= 0 {
		return DefaultExactOrderLimit
	}
	return o.ExactOrderLimit
}

func (o Options) maxExact() int {
	n := o.MaxExactOrders
	if n <= 0 {
		n = DefaultMaxExactOrders
	}
	return min(n, o.exactLimit())
}

type PlanRouteRequest struct {
	AgentID  string
	Start    domain.Stop
	Orders   []domain.Order
	DepartAt time.Time
	Mode     Mode
}

// PlanRoute computes a route for one agent and annotates it with arrival
// times, waits and distances.
//
// Distances are resolved from source for every stop before the search runs.
// A greedy dead end is not an error for the caller: the partial route is
// returned with a warning.
func PlanRoute(
	ctx context.Context,
	req PlanRouteRequest,
	source ports.DistanceOracleSource,
	opts Options,
) (_ *domain.RoutePlan, err error) {
	defer obs.Time(ctx, "services.PlanRoute")(&err)

	if source == nil {
		return nil, errors.New("plan route: distance source must be non-nil")
	}
	if err := validateRequest(req); err != nil {
		metrics.RouteOptimizations.WithLabelValues("none", "invalid").Inc()
		return nil, fmt.Errorf("plan route: %w", err)
	}
	greedy := useGreedy(req.Mode, len(req.Orders), opts)
	if !greedy && len(req.Orders) > opts.exactLimit() {
		metrics.RouteOptimizations.WithLabelValues("exact", "invalid").Inc()
		return nil, fmt.Errorf("plan route: %w: %d orders exceed the exact search limit of %d; use greedy or auto mode",
			domain.ErrInvalidInput, len(req.Orders), opts.exactLimit())
	}

	stops := make([]domain.Stop, 0, 1+2*len(req.Orders))
	stops = append(stops, req.Start)
	for _, o := range req.Orders {
		stops = append(stops, o.Pickup, o.Dropoff)
	}

	oracle, err := source.OracleFor(ctx, stops)
	if err != nil {
		return nil, fmt.Errorf("plan route: resolve distances: %w", err)
	}

	// One facade per request; the strategy is fixed before the search.
	optimizer := routing.NewOptimizer(routing.NewPrecedenceTSP(oracle))
	if greedy {
		optimizer.SetStrategy(routing.NewGreedyHeuristic(oracle))
	}
	strategy := routing.StrategyName(optimizer.Strategy())

	metrics.RouteOrders.Observe(float64(len(req.Orders)))
	started := time.Now()
	route, err := optimizer.OptimalRoute(req.Start, req.Orders)
	metrics.RouteOptimizationDuration.WithLabelValues(strategy).Observe(time.Since(started).Seconds())

	var warnings []string
	switch {
	case errors.Is(err, domain.ErrNoFeasibleTransition):
		metrics.RouteOptimizations.WithLabelValues(strategy, "partial").Inc()
		log.Warn().
			Str("req_id", obs.RequestID(ctx)).
			Str("agent_id", req.AgentID).
			Str("strategy", strategy).
			Int("routed_stops", len(route)).
			Int("expected_stops", len(stops)).
			Err(err).
			Msg("route is partial")
		warnings = append(warnings, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		metrics.RouteOptimizations.WithLabelValues(strategy, "invalid").Inc()
		return nil, fmt.Errorf("plan route: %w", err)
	case err != nil:
		metrics.RouteOptimizations.WithLabelValues(strategy, "error").Inc()
		return nil, fmt.Errorf("plan route: %w", err)
	default:
		metrics.RouteOptimizations.WithLabelValues(strategy, "ok").Inc()
	}

	plan := buildPlan(req, route, oracle)
	plan.Strategy = strategy
	plan.Warnings = warnings

	log.Info().
		Str("req_id", obs.RequestID(ctx)).
		Str("agent_id", req.AgentID).
		Str("plan_id", plan.PlanID).
		Str("strategy", strategy).
		Int("orders", len(req.Orders)).
		Float64("distance_km", plan.TotalDistanceKm).
		Dur("duration", plan.TotalDuration).
		Msg("route planned")

	return plan, nil
}

func validateRequest(req PlanRouteRequest) error {
	if _, err := ParseMode(string(req.Mode)); err != nil {
		return err
	}
	if req.Start.IsZero() {
		return fmt.Errorf("%w: start stop is required", domain.ErrInvalidInput)
	}
	if err := req.Start.Coordinates.Validate(); err != nil {
		return fmt.Errorf("%w: start: %v", domain.ErrInvalidInput, err)
	}
	if len(req.Orders) == 0 {
		return fmt.Errorf("%w: order batch must not be empty", domain.ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(req.Orders))
	for _, o := range req.Orders {
		if err := o.Validate(); err != nil {
			return err
		}
		if o.ID != "" {
			if _, dup := seen[o.ID]; dup {
				return fmt.Errorf("%w: duplicate order id %q", domain.ErrInvalidInput, o.ID)
			}
			seen[o.ID] = struct{}{}
		}
		for _, s := range []domain.Stop{o.Pickup, o.Dropoff} {
			if err := s.Coordinates.Validate(); err != nil {
				return fmt.Errorf("%w: order %q stop %q: %v", domain.ErrInvalidInput, o.ID, s.Name, err)
			}
		}
	}
	return nil
}

func useGreedy(mode Mode, orders int, opts Options) bool {
	switch mode {
	case ModeGreedy:
		return true
	case ModeExact:
		return false
	default:
		return orders > opts.maxExact()
	}
}

// buildPlan walks the route at the routing speed. Arrival at a pickup before
// the order is ready adds a wait; later stops are shifted by it.
func buildPlan(req PlanRouteRequest, route domain.Route, oracle ports.DistanceOracle) *domain.RoutePlan {
	depart := req.DepartAt
	if depart.IsZero() {
		depart = time.Now().UTC()
	}

	plan := &domain.RoutePlan{
		PlanID:   uuid.NewString(),
		AgentID:  req.AgentID,
		DepartAt: depart,
		Stops:    make([]domain.RouteStop, 0, len(route)),
	}
	if len(route) == 0 {
		return plan
	}

	plan.Stops = append(plan.Stops, domain.RouteStop{
		Stop:     route[0],
		Kind:     domain.StopKindStart,
		ArriveAt: depart,
	})

	pickedUp := make([]bool, len(req.Orders))
	delivered := make([]bool, len(req.Orders))

	minutes := 0.0
	for i := 1; i < len(route); i++ {
		leg := oracle.Distance(route[i-1], route[i])
		minutes += routing.TravelMinutes(leg)
		plan.TotalDistanceKm += leg

		// A stop that is both a pending dropoff and a new pickup is served
		// as the dropoff first; the next visit there picks up.
		rs := domain.RouteStop{Stop: route[i], LegDistanceKm: leg}
		if idx := matchDropoff(req.Orders, pickedUp, delivered, route[i]); idx >= 0 {
			delivered[idx] = true
			rs.Kind = domain.StopKindDropoff
			rs.OrderID = req.Orders[idx].ID
		} else if idx := matchPickup(req.Orders, pickedUp, route[i]); idx >= 0 {
			pickedUp[idx] = true
			o := req.Orders[idx]
			rs.Kind = domain.StopKindPickup
			rs.OrderID = o.ID
			rs.WaitMinutes = math.Max(0, o.ReadyDuration.Minutes()-minutes)
		}

		rs.ArriveAt = depart.Add(routing.MinutesToDuration(minutes))
		minutes += rs.WaitMinutes
		plan.Stops = append(plan.Stops, rs)
	}

	plan.TotalDuration = routing.MinutesToDuration(minutes)
	return plan
}

func matchPickup(orders []domain.Order, pickedUp []bool, s domain.Stop) int {
	for i, o := range orders {
		if !pickedUp[i] && o.Pickup == s {
			return i
		}
	}
	return -1
}

func matchDropoff(orders []domain.Order, pickedUp, delivered []bool, s domain.Stop) int {
	for i, o := range orders {
		if pickedUp[i] && !delivered[i] && o.Dropoff == s {
			return i
		}
	}
	return -1
}
