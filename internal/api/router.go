package api

import (
	"net/http"

	"delivery-route-optimizer/internal/api/handlers"
	"delivery-route-optimizer/internal/platform/metrics"
	"delivery-route-optimizer/internal/ports"
	"delivery-route-optimizer/internal/services"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP layer needs. Orders and Plans may be
// nil when no database is configured; the endpoints that need them then
// answer 503.
type Deps struct {
	Orders  ports.OrderRepository
	Plans   ports.RoutePlanRepository
	Source  ports.DistanceOracleSource
	Options services.Options
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	metrics.RegisterDefault()

	mux := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{Source: deps.Source, Options: deps.Options}

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/routes", routeHandler.Plan)

	if deps.Orders != nil && deps.Plans != nil {
		orderHandler := &handlers.OrderHandler{Repo: deps.Orders}
		planHandler := &handlers.PlanHandler{
			Orders:  deps.Orders,
			Plans:   deps.Plans,
			Source:  deps.Source,
			Options: deps.Options,
		}
		mux.HandleFunc("/orders", orderHandler.List)
		mux.HandleFunc("/plans", planHandler.Plan)
	} else {
		mux.HandleFunc("/orders", handlers.Unavailable)
		mux.HandleFunc("/plans", handlers.Unavailable)
	}

	return requestIDMiddleware(loggingMiddleware(mux))
}
