package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"delivery-route-optimizer/internal/domain"
)

// Initialize the Postgres database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		pickup_name TEXT NOT NULL,
		pickup_lat DOUBLE PRECISION NOT NULL,
		pickup_lon DOUBLE PRECISION NOT NULL,
		dropoff_name TEXT NOT NULL,
		dropoff_lat DOUBLE PRECISION NOT NULL,
		dropoff_lon DOUBLE PRECISION NOT NULL,
		ready_seconds INTEGER NOT NULL DEFAULT 0 CHECK (ready_seconds >= 0),
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createOrdersIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_orders_agent_status
	ON orders(agent_id, status, created_at);
	`

	createRoutePlansQuery := `
	CREATE TABLE IF NOT EXISTS route_plans (
		plan_id UUID PRIMARY KEY,
		agent_id TEXT NOT NULL,
		strategy TEXT NOT NULL,
		depart_at TIMESTAMPTZ NOT NULL,
		total_distance_km DOUBLE PRECISION NOT NULL,
		total_duration_seconds BIGINT NOT NULL,
		stops JSONB NOT NULL,
		warnings JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance_meters INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		cached_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (origin, destination)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin
	ON distance_cache(destination, origin);
	`

	statements := []string{
		createOrdersQuery,
		createOrdersIndexQuery,
		createRoutePlansQuery,
		createDistanceCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type StopSeed struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type OrderSeed struct {
	OrderID      string   `json:"order_id"`
	AgentID      string   `json:"agent_id"`
	Pickup       StopSeed `json:"pickup"`
	Dropoff      StopSeed `json:"dropoff"`
	ReadyMinutes float64  `json:"ready_minutes"`
}

func (s StopSeed) stop() domain.Stop {
	return domain.NewStop(strings.TrimSpace(s.Name), s.Lat, s.Lon)
}

// Populate the database with pending orders from a JSON file.
// Re-seeding an existing order resets it to pending.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed orders: read %q: %w", jsonPath, err)
	}

	var data []OrderSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed orders: parse json: %w", err)
	}

	rows := make([]OrderSeed, 0, len(data))
	for i, item := range data {
		item.OrderID = strings.TrimSpace(item.OrderID)
		if item.OrderID == "" {
			return fmt.Errorf("seed orders: item at index %d: order_id cannot be empty", i+1)
		}
		item.AgentID = strings.TrimSpace(item.AgentID)
		if item.AgentID == "" {
			return fmt.Errorf("seed orders: order %q: agent_id cannot be empty", item.OrderID)
		}

		o := domain.Order{
			ID:            item.OrderID,
			Pickup:        item.Pickup.stop(),
			Dropoff:       item.Dropoff.stop(),
			ReadyDuration: minutesToDuration(item.ReadyMinutes),
		}
		if err := o.Validate(); err != nil {
			return fmt.Errorf("seed orders: %w", err)
		}
		rows = append(rows, item)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed orders: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO orders (
		order_id, agent_id,
		pickup_name, pickup_lat, pickup_lon,
		dropoff_name, dropoff_lat, dropoff_lon,
		ready_seconds, status
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending')
	ON CONFLICT (order_id) DO UPDATE
	SET agent_id = EXCLUDED.agent_id,
		pickup_name = EXCLUDED.pickup_name,
		pickup_lat = EXCLUDED.pickup_lat,
		pickup_lon = EXCLUDED.pickup_lon,
		dropoff_name = EXCLUDED.dropoff_name,
		dropoff_lat = EXCLUDED.dropoff_lat,
		dropoff_lon = EXCLUDED.dropoff_lon,
		ready_seconds = EXCLUDED.ready_seconds,
		status = 'pending';
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("seed orders: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range rows {
		readySeconds := int(minutesToDuration(o.ReadyMinutes).Seconds())
		if _, err := stmt.ExecContext(ctx,
			o.OrderID, o.AgentID,
			strings.TrimSpace(o.Pickup.Name), o.Pickup.Lat, o.Pickup.Lon,
			strings.TrimSpace(o.Dropoff.Name), o.Dropoff.Lat, o.Dropoff.Lon,
			readySeconds,
		); err != nil {
			return fmt.Errorf("seed orders: insert order_id=%q: %w", o.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed orders: commit tx: %w", err)
	}

	return nil
}
