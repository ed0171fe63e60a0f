package distance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const defaultORSBaseURL = "https://api.openrouteservice.org"

// ORSDistanceProvider implements DistanceMatrixProvider using OpenRouteService.
//
// It coordinates:
//   - Persistent distance caching (optional)
//   - Client-side rate limiting to stay within the ORS quota
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSDistanceProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	limiter *rate.Limiter
	retry   retryPolicy
	cache   ports.DistanceCache
}

type ORSOption func(*ORSDistanceProvider)

// WithBaseURL points the provider at another ORS deployment.
func WithBaseURL(u string) ORSOption {
	return func(o *ORSDistanceProvider) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithProfile selects the ORS routing profile (driving-car, cycling-regular, ...).
func WithProfile(profile string) ORSOption {
	return func(o *ORSDistanceProvider) { o.profile = profile }
}

// WithRatePerMinute caps outgoing requests. Zero or negative disables the cap.
func WithRatePerMinute(n int) ORSOption {
	return func(o *ORSDistanceProvider) {
		if n <= 0 {
			o.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		o.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// WithRetry sets the number of attempts per request and the first backoff
// delay. attempts below 1 means a single attempt.
func WithRetry(attempts int, baseDelay time.Duration) ORSOption {
	return func(o *ORSDistanceProvider) {
		if attempts < 1 {
			attempts = 1
		}
		o.retry.attempts = attempts
		o.retry.baseDelay = baseDelay
	}
}

// WithCache enables a read-through distance cache.
func WithCache(c ports.DistanceCache) ORSOption {
	return func(o *ORSDistanceProvider) { o.cache = c }
}

func NewORSDistanceProvider(apiKey string, opts ...ORSOption) (*ORSDistanceProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	provider := &ORSDistanceProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: defaultORSBaseURL,
		profile: "cycling-regular",
		limiter: rate.NewLimiter(rate.Every(time.Minute/40), 1),
		retry:   defaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(provider)
	}

	return provider, nil
}

// Compute distances from a single origin to many destinations.
func (o *ORSDistanceProvider) GetDistances(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "ors.GetDistances")(&err)

	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("ORS origin: %w", err)
	}

	if len(destinations) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	originKey := origin.Key()

	seen := make(map[string]struct{}, len(destinations))
	destList := make([]domain.Coordinates, 0, len(destinations))
	out := make(map[string]ports.DistanceResult, len(destinations))
	for _, d := range destinations {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("ORS destination: %w", err)
		}
		k := d.Key()
		if k == originKey {
			out[k] = ports.DistanceResult{}
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		destList = append(destList, d)
	}

	if len(destList) == 0 {
		return out, nil
	}

	keys := make([]string, len(destList))
	for i, d := range destList {
		keys[i] = d.Key()
	}

	// Check persistent distance cache before issuing external API calls.
	hits := map[string]ports.DistanceResult{}
	if o.cache != nil {
		hits, err = o.cache.GetMany(ctx, originKey, keys)
		if err != nil {
			return nil, fmt.Errorf("ORS get distance cache: %w", err)
		}
	}

	misses := make([]domain.Coordinates, 0, len(destList))
	for _, d := range destList {
		if r, ok := hits[d.Key()]; ok {
			out[d.Key()] = r
			continue
		}
		misses = append(misses, d)
	}

	if len(misses) == 0 {
		return out, nil
	}

	// Fetch a single origin->many matrix row for all cache misses.
	fetched, err := o.fetchMatrixRow(ctx, origin, misses)
	if err != nil {
		return nil, fmt.Errorf("fetching matrix row: %w", err)
	}

	missing := make([]string, 0)
	for _, d := range misses {
		if _, ok := fetched[d.Key()]; !ok {
			missing = append(missing, d.Key())
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf(
			"ORS matrix service did not return the following destinations: %s",
			strings.Join(missing, "; "),
		)
	}

	if o.cache != nil {
		if err := o.cache.PutMany(ctx, originKey, fetched); err != nil {
			log.Warn().Err(err).Str("origin", originKey).Msg("distance cache write failed")
		}
	}

	for k, v := range fetched {
		out[k] = v
	}

	return out, nil
}
