package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/obs"
)

// Postgres-backed implementation of the OrderRepository and
// RoutePlanRepository ports.
type PostgresOrderRepository struct{ DB *sql.DB }

func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{DB: db}
}

// Return the pending orders of an agent, oldest first.
func (s *PostgresOrderRepository) ListPendingOrders(ctx context.Context, agentID string) (_ []domain.Order, err error) {
	defer obs.Time(ctx, "repositories.ListPendingOrders")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres order repository: DB is nil")
	}
	if agentID == "" {
		return nil, fmt.Errorf("list pending orders: %w: agent id is required", domain.ErrInvalidInput)
	}

	query := `
	SELECT
		order_id,
		pickup_name, pickup_lat, pickup_lon,
		dropoff_name, dropoff_lat, dropoff_lon,
		ready_seconds
	FROM orders
	WHERE agent_id = $1 AND status = 'pending'
	ORDER BY created_at, order_id;
	`
	rows, err := s.DB.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("list pending orders: query orders table: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 16)
	for rows.Next() {
		var (
			o            domain.Order
			readySeconds int
		)
		err := rows.Scan(
			&o.ID,
			&o.Pickup.Name, &o.Pickup.Coordinates.Lat, &o.Pickup.Coordinates.Lon,
			&o.Dropoff.Name, &o.Dropoff.Coordinates.Lat, &o.Dropoff.Coordinates.Lon,
			&readySeconds,
		)
		if err != nil {
			return nil, fmt.Errorf("list pending orders: scan row: %w", err)
		}
		o.ReadyDuration = time.Duration(readySeconds) * time.Second
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending orders: row iteration: %w", err)
	}

	return orders, nil
}

type storedStop struct {
	Name          string    `json:"name"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	Kind          string    `json:"kind"`
	OrderID       string    `json:"order_id,omitempty"`
	ArriveAt      time.Time `json:"arrive_at"`
	LegDistanceKm float64   `json:"leg_distance_km"`
	WaitMinutes   float64   `json:"wait_minutes"`
}

// Persist a route plan and mark its orders as planned, in one transaction.
func (s *PostgresOrderRepository) SaveRoutePlan(ctx context.Context, plan *domain.RoutePlan) (err error) {
	defer obs.Time(ctx, "repositories.SaveRoutePlan")(&err)

	if s.DB == nil {
		return errors.New("postgres order repository: DB is nil")
	}
	if plan == nil || plan.PlanID == "" {
		return fmt.Errorf("save route plan: %w: plan id is required", domain.ErrInvalidInput)
	}

	stops := make([]storedStop, 0, len(plan.Stops))
	orderIDs := make([]string, 0, len(plan.Stops)/2)
	for _, rs := range plan.Stops {
		stops = append(stops, storedStop{
			Name:          rs.Stop.Name,
			Lat:           rs.Stop.Coordinates.Lat,
			Lon:           rs.Stop.Coordinates.Lon,
			Kind:          string(rs.Kind),
			OrderID:       rs.OrderID,
			ArriveAt:      rs.ArriveAt,
			LegDistanceKm: rs.LegDistanceKm,
			WaitMinutes:   rs.WaitMinutes,
		})
		if rs.Kind == domain.StopKindDropoff && rs.OrderID != "" {
			orderIDs = append(orderIDs, rs.OrderID)
		}
	}

	stopsJSON, err := json.Marshal(stops)
	if err != nil {
		return fmt.Errorf("save route plan: encode stops: %w", err)
	}
	warnings := plan.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("save route plan: encode warnings: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save route plan: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO route_plans (
		plan_id, agent_id, strategy, depart_at,
		total_distance_km, total_duration_seconds, stops, warnings
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb);
	`,
		plan.PlanID, plan.AgentID, plan.Strategy, plan.DepartAt,
		plan.TotalDistanceKm, int64(math.Round(plan.TotalDuration.Seconds())), string(stopsJSON), string(warningsJSON),
	)
	if err != nil {
		return fmt.Errorf("save route plan: insert plan %s: %w", plan.PlanID, err)
	}

	if len(orderIDs) > 0 {
		_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = 'planned'
		WHERE agent_id = $1 AND order_id = ANY($2::text[]);
		`, plan.AgentID, orderIDs)
		if err != nil {
			return fmt.Errorf("save route plan: mark orders planned: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save route plan: commit tx: %w", err)
	}

	return nil
}

func minutesToDuration(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}
