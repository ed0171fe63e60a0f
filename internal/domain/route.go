package domain

import "time"

// Route is the ordered stop sequence produced by a routing strategy.
// Element 0 is always the agent's starting position.
type Route []Stop

// Names returns the stop names in visiting order.
func (r Route) Names() []string {
	out := make([]string, len(r))
	for i, s := range r {
		out[i] = s.Name
	}
	return out
}

// StopKind tells what the agent does at a stop.
type StopKind string

const (
	StopKindStart   StopKind = "start"
	StopKindPickup  StopKind = "pickup"
	StopKindDropoff StopKind = "dropoff"
)

// Represents a single stop in a planned route.
// ArriveAt includes travel and any waiting at earlier pickups; WaitMinutes is
// the time spent at this stop waiting for the order to be ready.
type RouteStop struct {
	Stop          Stop
	Kind          StopKind
	OrderID       string
	ArriveAt      time.Time
	LegDistanceKm float64
	WaitMinutes   float64
}

// Represents the planned route for a single delivery agent.
// A RoutePlan is the output of route planning and describes the ordered
// sequence of stops, along with aggregate distance and duration metrics.
// It is immutable planning data and contains no side effects.
type RoutePlan struct {
	PlanID          string
	AgentID         string
	Strategy        string
	DepartAt        time.Time
	Stops           []RouteStop
	TotalDistanceKm float64
	TotalDuration   time.Duration
	Warnings        []string
}
