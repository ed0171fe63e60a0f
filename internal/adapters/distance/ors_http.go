package distance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// httpStatusError is a non-2xx ORS reply. RetryAfter is set when the server
// sent a Retry-After header in seconds.
type httpStatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("ors status %d: %s", e.Code, e.Body)
}

func (e *httpStatusError) temporary() bool {
	switch e.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryPolicy is exponential backoff capped at maxDelay.
type retryPolicy struct {
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
}

var defaultRetryPolicy = retryPolicy{attempts: 4, baseDelay: 200 * time.Millisecond, maxDelay: 5 * time.Second}

func (p retryPolicy) delay(attempt int, err error) time.Duration {
	d := p.baseDelay << (attempt - 1)
	var he *httpStatusError
	if errors.As(err, &he) && he.RetryAfter > d {
		d = he.RetryAfter
	}
	if d > p.maxDelay {
		d = p.maxDelay
	}
	return d
}

func (o *ORSDistanceProvider) post(ctx context.Context, url string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 400 {
		return resp, nil
	}

	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	he := &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		he.RetryAfter = time.Duration(secs) * time.Second
	}
	return nil, he
}

// postWithRetry sends payload until it succeeds, fails permanently, or the
// policy runs out of attempts. Every attempt takes a rate limiter token.
func (o *ORSDistanceProvider) postWithRetry(ctx context.Context, url string, payload []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= o.retry.attempts; attempt++ {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := o.post(ctx, url, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == o.retry.attempts {
			break
		}

		wait := o.retry.delay(attempt, err)
		log.Debug().Err(err).Int("attempt", attempt).Dur("backoff", wait).Msg("ors request retry")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}

func isRetryable(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		return he.temporary()
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
