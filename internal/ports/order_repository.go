package ports

import (
	"context"

	"delivery-route-optimizer/internal/domain"
)

// Port: a boundary for retrieving orders awaiting delivery.
type OrderRepository interface {
	// Retrieve the pending orders assigned to an agent, in dispatch order.
	ListPendingOrders(ctx context.Context, agentID string) ([]domain.Order, error)
}

// Port: a boundary for persisting computed route plans.
type RoutePlanRepository interface {
	SaveRoutePlan(ctx context.Context, plan *domain.RoutePlan) error
}
