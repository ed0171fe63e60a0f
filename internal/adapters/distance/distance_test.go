package distance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineKm(t *testing.T) {
	// One degree of latitude is ~111.19 km on a 6371 km sphere.
	got := HaversineKm(domain.Coordinates{Lat: 0, Lon: 0}, domain.Coordinates{Lat: 1, Lon: 0})
	assert.InDelta(t, 111.19, got, 0.01)

	rider := domain.NewStop("rider", 12.9330, 77.6200)
	assert.Zero(t, Haversine{}.Distance(rider, rider))
}

func TestMatrixSourcePrefetchesAllPairs(t *testing.T) {
	a := domain.Coordinates{Lat: 12.93, Lon: 77.62}
	b := domain.Coordinates{Lat: 12.94, Lon: 77.63}
	c := domain.Coordinates{Lat: 12.95, Lon: 77.64}

	provider := NewMockDistanceProvider([]MockPair{
		{From: a, To: b, Meters: 1500}, {From: a, To: c, Meters: 3000},
		{From: b, To: a, Meters: 1600}, {From: b, To: c, Meters: 1200},
		{From: c, To: a, Meters: 3100}, {From: c, To: b, Meters: 1300},
	})

	stops := []domain.Stop{
		{Name: "A", Coordinates: a},
		{Name: "B", Coordinates: b},
		{Name: "C", Coordinates: c},
		{Name: "A again", Coordinates: a},
	}

	oracle, err := MatrixSource{Provider: provider, Concurrency: 2}.OracleFor(context.Background(), stops)
	require.NoError(t, err)
	assert.Equal(t, 3, provider.Calls())

	assert.InDelta(t, 1.5, oracle.Distance(stops[0], stops[1]), 1e-9)
	assert.InDelta(t, 1.6, oracle.Distance(stops[1], stops[0]), 1e-9)
	assert.InDelta(t, 1.3, oracle.Distance(stops[2], stops[1]), 1e-9)
	assert.Zero(t, oracle.Distance(stops[0], stops[3]))
}

func TestMatrixSourcePropagatesProviderError(t *testing.T) {
	provider := NewMockDistanceProvider(nil)
	stops := []domain.Stop{domain.NewStop("A", 1, 1), domain.NewStop("B", 2, 2)}

	_, err := MatrixSource{Provider: provider}.OracleFor(context.Background(), stops)
	require.Error(t, err)
}

func TestMatrixOracleFallsBack(t *testing.T) {
	oracle := NewMatrixOracle(nil)
	a := domain.NewStop("A", 0, 0)
	b := domain.NewStop("B", 1, 0)

	assert.InDelta(t, HaversineKm(a.Coordinates, b.Coordinates), oracle.Distance(a, b), 1e-9)

	oracle.Set(a.Coordinates, b.Coordinates, 42)
	assert.Equal(t, 42.0, oracle.Distance(a, b))
}

type memoryCache struct {
	mu   sync.Mutex
	rows map[string]map[string]ports.DistanceResult
}

func (m *memoryCache) GetMany(ctx context.Context, origin string, destinations []string) (map[string]ports.DistanceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]ports.DistanceResult{}
	for _, d := range destinations {
		if r, ok := m.rows[origin][d]; ok {
			out[d] = r
		}
	}
	return out, nil
}

func (m *memoryCache) PutMany(ctx context.Context, origin string, results map[string]ports.DistanceResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = map[string]map[string]ports.DistanceResult{}
	}
	if m.rows[origin] == nil {
		m.rows[origin] = map[string]ports.DistanceResult{}
	}
	for k, v := range results {
		m.rows[origin][k] = v
	}
	return nil
}

func TestORSProviderRetriesAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if n == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}

		assert.Equal(t, "/v2/matrix/cycling-regular", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Authorization"))

		var req matrixRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, []int{0}, req.Sources)
		assert.Len(t, req.Locations, 3)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"distances": [][]float64{{1200.4, 2500.6}},
			"durations": [][]float64{{300, 600}},
		})
	}))
	defer srv.Close()

	cache := &memoryCache{}
	provider, err := NewORSDistanceProvider("secret",
		WithBaseURL(srv.URL),
		WithRatePerMinute(0),
		WithCache(cache),
	)
	require.NoError(t, err)

	origin := domain.Coordinates{Lat: 12.93, Lon: 77.62}
	b := domain.Coordinates{Lat: 12.94, Lon: 77.63}
	c := domain.Coordinates{Lat: 12.95, Lon: 77.64}

	res, err := provider.GetDistances(context.Background(), origin, []domain.Coordinates{b, c, b})
	require.NoError(t, err)
	assert.Equal(t, ports.DistanceResult{DistanceMeters: 1200, DurationSeconds: 300}, res[b.Key()])
	assert.Equal(t, ports.DistanceResult{DistanceMeters: 2501, DurationSeconds: 600}, res[c.Key()])
	assert.EqualValues(t, 2, hits.Load())

	// Second call is served from the cache.
	res, err = provider.GetDistances(context.Background(), origin, []domain.Coordinates{c})
	require.NoError(t, err)
	assert.Equal(t, 2501, res[c.Key()].DistanceMeters)
	assert.EqualValues(t, 2, hits.Load())
}

func TestORSProviderDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	provider, err := NewORSDistanceProvider("nope", WithBaseURL(srv.URL), WithRatePerMinute(0))
	require.NoError(t, err)

	_, err = provider.GetDistances(context.Background(),
		domain.Coordinates{Lat: 1, Lon: 1},
		[]domain.Coordinates{{Lat: 2, Lon: 2}},
	)
	require.Error(t, err)

	var he *httpStatusError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)
	assert.EqualValues(t, 1, hits.Load())
}

func TestORSProviderRetryBudget(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	provider, err := NewORSDistanceProvider("k",
		WithBaseURL(srv.URL),
		WithRatePerMinute(0),
		WithRetry(2, time.Millisecond),
	)
	require.NoError(t, err)

	_, err = provider.GetDistances(context.Background(),
		domain.Coordinates{Lat: 1, Lon: 1},
		[]domain.Coordinates{{Lat: 2, Lon: 2}},
	)
	var he *httpStatusError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusServiceUnavailable, he.Code)
	assert.EqualValues(t, 2, hits.Load())
}

func TestRetryPolicyDelay(t *testing.T) {
	p := retryPolicy{attempts: 5, baseDelay: 100 * time.Millisecond, maxDelay: time.Second}

	assert.Equal(t, 100*time.Millisecond, p.delay(1, errors.New("x")))
	assert.Equal(t, 400*time.Millisecond, p.delay(3, errors.New("x")))
	assert.Equal(t, time.Second, p.delay(5, errors.New("x")))
	assert.Equal(t, time.Second, p.delay(1, &httpStatusError{Code: 429, RetryAfter: 30 * time.Second}))
}

func TestNewORSDistanceProviderRequiresKey(t *testing.T) {
	_, err := NewORSDistanceProvider("")
	assert.Error(t, err)
}
