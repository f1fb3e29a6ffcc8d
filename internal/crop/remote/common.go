package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/i474232898/crop-yield-dashboard/internal/crop"
)

// BackoffConfig controls exponential backoff between retries of idempotent calls.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// BreakerConfig controls the circuit breaker placed in front of each service.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errCircuitOpen = errors.New("circuit breaker open")
)

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
	})
}

// do executes a request through the rate limiter and circuit breaker. Idempotent
// calls are retried with exponential backoff when retries are configured.
// Rate limiting and 5xx answers count as failures; every other response is
// returned to the caller with its body open.
func (c *Client) do(
	ctx context.Context,
	endpoint string,
	cb *gobreaker.CircuitBreaker,
	idempotent bool,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	var resp *http.Response

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := buildRequest(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}

		start := time.Now()
		result, err := cb.Execute(func() (interface{}, error) {
			r, execErr := c.httpClient.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if r.StatusCode == http.StatusTooManyRequests {
				r.Body.Close()
				return nil, errRateLimited
			}
			if r.StatusCode >= 500 {
				r.Body.Close()
				return nil, fmt.Errorf("%w: %d", errServerError, r.StatusCode)
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				c.metrics.ObserveUpstream(endpoint, "circuit_open", time.Since(start))
				return backoff.Permanent(fmt.Errorf("%w: %v", errCircuitOpen, err))
			}
			c.metrics.ObserveUpstream(endpoint, "error", time.Since(start))
			return err
		}

		c.metrics.ObserveUpstream(endpoint, "ok", time.Since(start))
		r, ok := result.(*http.Response)
		if !ok {
			return backoff.Permanent(fmt.Errorf("unexpected result type from circuit breaker"))
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.retryPolicy(idempotent), ctx)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", crop.ErrUnavailable, endpoint, err)
	}
	return resp, nil
}

func (c *Client) retryPolicy(idempotent bool) backoff.BackOff {
	if !idempotent || c.backoff.MaxRetries <= 0 {
		return &backoff.StopBackOff{}
	}
	eb := backoff.NewExponentialBackOff()
	if c.backoff.InitialInterval > 0 {
		eb.InitialInterval = c.backoff.InitialInterval
	}
	if c.backoff.MaxInterval > 0 {
		eb.MaxInterval = c.backoff.MaxInterval
	}
	return backoff.WithMaxRetries(eb, uint64(c.backoff.MaxRetries))
}
