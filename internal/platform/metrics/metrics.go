package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path"},
	)

	// RouteOptimizations counts route computations by strategy and outcome
	// (ok, partial, invalid, error).
	RouteOptimizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_optimizations_total", Help: "Route optimizations by strategy and outcome."},
		[]string{"strategy", "outcome"},
	)
	// RouteOptimizationDuration records time spent inside a strategy.
	RouteOptimizationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "route_optimization_duration_seconds",
			Help:    "Time spent computing a route, by strategy.",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"strategy"},
	)
	// RouteOrders observes batch sizes submitted for routing.
	RouteOrders = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "route_batch_orders", Help: "Orders per routed batch.", Buckets: []float64{1, 2, 4, 6, 8, 10, 15, 25, 50}},
	)
)

// RegisterDefault registers collectors to Registry. Safe to call repeatedly.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(RouteOptimizations)
		Registry.MustRegister(RouteOptimizationDuration)
		Registry.MustRegister(RouteOrders)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
