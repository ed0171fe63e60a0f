package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/ports"

	"github.com/rs/zerolog/log"
)

type PlanAgentRequest struct {
	AgentID  string
	Start    domain.Stop
	DepartAt time.Time
	Mode     Mode
}

// PlanAgentRoute routes every pending order of an agent and persists the
// resulting plan. An agent with no pending orders gets a plan holding only
// the start stop, which is not stored.
func PlanAgentRoute(
	ctx context.Context,
	req PlanAgentRequest,
	orders ports.OrderRepository,
	plans ports.RoutePlanRepository,
	source ports.DistanceOracleSource,
	opts Options,
) (*domain.RoutePlan, error) {
	if orders == nil || plans == nil {
		return nil, errors.New("plan agent route: repositories must be non-nil")
	}
	if req.AgentID == "" {
		return nil, fmt.Errorf("plan agent route: %w: agent id is required", domain.ErrInvalidInput)
	}

	pending, err := orders.ListPendingOrders(ctx, req.AgentID)
	if err != nil {
		return nil, fmt.Errorf("plan agent route: list pending orders: %w", err)
	}

	if len(pending) == 0 {
		if req.Start.IsZero() {
			return nil, fmt.Errorf("plan agent route: %w: start stop is required", domain.ErrInvalidInput)
		}
		log.Info().Str("agent_id", req.AgentID).Msg("no pending orders")
		return &domain.RoutePlan{
			AgentID:  req.AgentID,
			DepartAt: req.DepartAt,
			Stops:    []domain.RouteStop{{Stop: req.Start, Kind: domain.StopKindStart, ArriveAt: req.DepartAt}},
		}, nil
	}

	plan, err := PlanRoute(ctx, PlanRouteRequest{
		AgentID:  req.AgentID,
		Start:    req.Start,
		Orders:   pending,
		DepartAt: req.DepartAt,
		Mode:     req.Mode,
	}, source, opts)
	if err != nil {
		return nil, fmt.Errorf("plan agent route: agent %s: %w", req.AgentID, err)
	}

	if err := plans.SaveRoutePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("plan agent route: save plan %s: %w", plan.PlanID, err)
	}

	return plan, nil
}
