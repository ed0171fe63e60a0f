package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"delivery-route-optimizer/internal/adapters/distance"
	"delivery-route-optimizer/internal/api/dto"
	"delivery-route-optimizer/internal/api/handlers"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/metrics"
	"delivery-route-optimizer/internal/services"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planeOracle struct{}

func (planeOracle) Distance(a, b domain.Stop) float64 {
	return math.Hypot(a.Coordinates.Lat-b.Coordinates.Lat, a.Coordinates.Lon-b.Coordinates.Lon)
}

type stubOrders struct {
	orders []domain.Order
	err    error
}

func (s *stubOrders) ListPendingOrders(context.Context, string) ([]domain.Order, error) {
	return s.orders, s.err
}

type stubPlans struct{ saved int }

func (s *stubPlans) SaveRoutePlan(context.Context, *domain.RoutePlan) error {
	s.saved++
	return nil
}

func newTestRouter(orders *stubOrders, plans *stubPlans) http.Handler {
	deps := Deps{Source: distance.StaticSource{Oracle: planeOracle{}}}
	if orders != nil {
		deps.Orders = orders
		deps.Plans = plans
	}
	return NewRouter(deps)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const routeBody = `{
	"agent_id": "a1",
	"start": {"name": "Agent", "lat": 0, "lon": 0},
	"orders": [
		{"order_id": "o1", "pickup": {"name": "R1", "lat": 1, "lon": 0}, "dropoff": {"name": "C1", "lat": 1, "lon": 1}, "ready_minutes": 0}
	],
	"depart_at": "2026-01-01T08:00:00Z"
}`

func TestHealth(t *testing.T) {
	h := newTestRouter(nil, nil)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newTestRouter(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestPlanInlineRoute(t *testing.T) {
	h := newTestRouter(nil, nil)
	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodPost, "/routes", "200"))

	rec := do(t, h, http.MethodPost, "/routes", routeBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res dto.PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []string{"Agent", "R1", "C1"}, res.Route)
	assert.Equal(t, "exact", res.Strategy)
	assert.InDelta(t, 2.0, res.TotalDistanceKm, 1e-9)
	assert.Equal(t, int64(360), res.TotalDurationSeconds)
	assert.Equal(t, "pickup", res.Stops[1].Kind)

	after := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodPost, "/routes", "200"))
	assert.Equal(t, before+1, after)
}

func TestPlanInlineRouteBadRequests(t *testing.T) {
	h := newTestRouter(nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"orders": [`},
		{"unknown field", `{"truck_count": 3}`},
		{"two objects", `{} {}`},
		{"no orders", `{"start": {"name": "A", "lat": 0, "lon": 0}, "orders": []}`},
		{"unknown mode", strings.Replace(routeBody, `"agent_id"`, `"mode": "fastest", "agent_id"`, 1)},
		{"negative ready", strings.Replace(routeBody, `"ready_minutes": 0`, `"ready_minutes": -5`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/routes", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestOrdersAndPlans(t *testing.T) {
	orders := &stubOrders{orders: []domain.Order{{
		ID:      "o1",
		Pickup:  domain.NewStop("R1", 1, 0),
		Dropoff: domain.NewStop("C1", 1, 1),
	}}}
	plans := &stubPlans{}
	h := newTestRouter(orders, plans)

	rec := do(t, h, http.MethodGet, "/orders?agent_id=a1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.ListOrdersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Orders, 1)
	assert.Equal(t, "R1", list.Orders[0].Pickup.Name)

	rec = do(t, h, http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, _ := json.Marshal(map[string]any{
		"agent_id": "a1",
		"start":    map[string]any{"name": "Agent", "lat": 0, "lon": 0},
	})
	req := httptest.NewRequest(http.MethodPost, "/plans", bytes.NewReader(body))
	prec := httptest.NewRecorder()
	h.ServeHTTP(prec, req)
	require.Equal(t, http.StatusOK, prec.Code, prec.Body.String())
	assert.Equal(t, 1, plans.saved)
}

func TestOrdersRepositoryFailure(t *testing.T) {
	h := newTestRouter(&stubOrders{err: errors.New("db down")}, &stubPlans{})

	rec := do(t, h, http.MethodGet, "/orders?agent_id=a1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestStorageEndpointsWithoutDatabase(t *testing.T) {
	h := newTestRouter(nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/orders?agent_id=a1", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/plans", "{}").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(nil, nil)
	do(t, h, http.MethodPost, "/routes", routeBody)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "route_optimizations_total")
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func exactBatchBody(orders int) string {
	req := dto.RouteRequest{
		Start: dto.StopRequest{Name: "Agent", Lat: 0, Lon: 0},
		Mode:  "exact",
	}
	for i := 0; i < orders; i++ {
		lat := float64(i+1) * 0.01
		req.Orders = append(req.Orders, dto.OrderRequest{
			OrderID: fmt.Sprintf("o%d", i+1),
			Pickup:  dto.StopRequest{Name: fmt.Sprintf("P%d", i+1), Lat: lat},
			Dropoff: dto.StopRequest{Name: fmt.Sprintf("D%d", i+1), Lat: lat, Lon: 0.01},
		})
	}
	b, _ := json.Marshal(req)
	return string(b)
}

func TestPlanInlineRouteRejectsOversizedExactBatch(t *testing.T) {
	h := newTestRouter(nil, nil)

	rec := do(t, h, http.MethodPost, "/routes", exactBatchBody(services.DefaultExactOrderLimit+1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "exact search limit")

	rec = do(t, h, http.MethodPost, "/routes", exactBatchBody(40))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanInlineRouteRejectsLargeBody(t *testing.T) {
	h := newTestRouter(nil, nil)

	body := `{"agent_id": "` + strings.Repeat("a", handlers.MaxBodyBytes) + `"}`
	rec := do(t, h, http.MethodPost, "/routes", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
