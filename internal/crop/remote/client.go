// Package remote talks to the prediction and history services over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/crop-yield-dashboard/internal/crop"
	"github.com/i474232898/crop-yield-dashboard/internal/metrics"
)

// Options configures a Client.
type Options struct {
	PredictionURL  string
	HistoryURL     string
	HTTPClient     *http.Client
	RequestsPerSec int
	Backoff        BackoffConfig
	Breaker        BreakerConfig
	Metrics        *metrics.Metrics
}

// Client implements crop.Predictor and crop.HistorySource.
type Client struct {
	predictionURL string
	historyURL    string
	httpClient    *http.Client
	limiter       *rate.Limiter
	backoff       BackoffConfig
	predictionCB  *gobreaker.CircuitBreaker
	historyCB     *gobreaker.CircuitBreaker
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

// NewClient creates a Client. A zero HistoryURL reuses PredictionURL.
func NewClient(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 5
	}
	if opts.HistoryURL == "" {
		opts.HistoryURL = opts.PredictionURL
	}

	return &Client{
		predictionURL: strings.TrimRight(strings.TrimSpace(opts.PredictionURL), "/"),
		historyURL:    strings.TrimRight(strings.TrimSpace(opts.HistoryURL), "/"),
		httpClient:    opts.HTTPClient,
		limiter:       rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		backoff:       opts.Backoff,
		predictionCB:  newBreaker("prediction", opts.Breaker),
		historyCB:     newBreaker("history", opts.Breaker),
		metrics:       opts.Metrics,
		logger:        log.With().Str("component", "remote_client").Logger(),
	}
}

// Predict posts the request to /predict. A 4xx answer whose body lacks a
// predicted_yield is reported as crop.ErrNoPrediction.
func (c *Client) Predict(ctx context.Context, req crop.PredictionRequest) (crop.PredictionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return crop.PredictionResponse{}, fmt.Errorf("encode prediction request: %w", err)
	}

	resp, err := c.do(ctx, "predict", c.predictionCB, false, func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictionURL+"/predict", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("Accept", "application/json")
		return r, nil
	})
	if err != nil {
		return crop.PredictionResponse{}, err
	}
	defer resp.Body.Close()

	out, err := decodePrediction(resp.Body)
	if err != nil {
		c.logger.Debug().Err(err).Int("status", resp.StatusCode).Msg("prediction response rejected")
		return crop.PredictionResponse{}, err
	}
	if resp.StatusCode >= 300 {
		return crop.PredictionResponse{}, fmt.Errorf("%w: status %d", crop.ErrNoPrediction, resp.StatusCode)
	}
	return out, nil
}

// History fetches /history, passing the window as time_period when given.
func (c *Client) History(ctx context.Context, window crop.TimeWindow) ([]crop.HistoryRecord, error) {
	u := c.historyURL + "/history"
	if window != "" {
		u += "?" + url.Values{"time_period": {string(window)}}.Encode()
	}

	resp, err := c.get(ctx, "history", u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeHistory(resp.Body)
}

// Stats fetches /history/stats.
func (c *Client) Stats(ctx context.Context) (crop.HistoryStats, error) {
	resp, err := c.get(ctx, "history_stats", c.historyURL+"/history/stats")
	if err != nil {
		return crop.HistoryStats{}, err
	}
	defer resp.Body.Close()

	return decodeStats(resp.Body)
}

// Archive posts to /archive. The response body is ignored.
func (c *Client) Archive(ctx context.Context) error {
	resp, err := c.do(ctx, "archive", c.historyCB, false, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, c.historyURL+"/archive", nil)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: archive status %d", crop.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint, u string) (*http.Response, error) {
	resp, err := c.do(ctx, endpoint, c.historyCB, true, func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		r.Header.Set("Accept", "application/json")
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s status %d", crop.ErrUnavailable, endpoint, resp.StatusCode)
	}
	return resp, nil
}
