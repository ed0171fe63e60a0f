package dto

import "time"

type StopRequest struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type OrderRequest struct {
	OrderID      string      `json:"order_id"`
	Pickup       StopRequest `json:"pickup"`
	Dropoff      StopRequest `json:"dropoff"`
	ReadyMinutes float64     `json:"ready_minutes"`
}

// RouteRequest plans an inline batch of orders.
type RouteRequest struct {
	AgentID  string         `json:"agent_id"`
	Start    StopRequest    `json:"start"`
	Orders   []OrderRequest `json:"orders"`
	DepartAt *time.Time     `json:"depart_at"`
	Mode     string         `json:"mode"`
}

// PlanRequest plans and stores the pending orders of an agent.
type PlanRequest struct {
	AgentID  string      `json:"agent_id"`
	Start    StopRequest `json:"start"`
	DepartAt *time.Time  `json:"depart_at"`
	Mode     string      `json:"mode"`
}

type PlanStopResponse struct {
	Name          string    `json:"name"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	Kind          string    `json:"kind"`
	OrderID       string    `json:"order_id,omitempty"`
	ArriveAt      time.Time `json:"arrive_at"`
	LegDistanceKm float64   `json:"leg_distance_km"`
	WaitMinutes   float64   `json:"wait_minutes"`
}

type PlanResponse struct {
	PlanID               string             `json:"plan_id,omitempty"`
	AgentID              string             `json:"agent_id,omitempty"`
	Strategy             string             `json:"strategy,omitempty"`
	DepartAt             time.Time          `json:"depart_at"`
	TotalDistanceKm      float64            `json:"total_distance_km"`
	TotalDurationSeconds int64              `json:"total_duration_seconds"`
	Route                []string           `json:"route"`
	Stops                []PlanStopResponse `json:"stops"`
	Warnings             []string           `json:"warnings,omitempty"`
}
