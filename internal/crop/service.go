package crop

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FilterMode selects where history is narrowed to the time window.
type FilterMode string

const (
	// FilterClient fetches all history and filters by date locally.
	FilterClient FilterMode = "client"
	// FilterServer passes the window as time_period and trusts the result.
	FilterServer FilterMode = "server"
)

// Service orchestrates the remote services and the history transformations.
type Service struct {
	predictor Predictor
	history   HistorySource
	locator   Locator
	mode      FilterMode
	now       func() time.Time
	logger    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLocator enables the geolocation variant of prediction requests.
func WithLocator(l Locator) Option {
	return func(s *Service) { s.locator = l }
}

// WithFilterMode sets where history filtering happens.
func WithFilterMode(m FilterMode) Option {
	return func(s *Service) { s.mode = m }
}

// WithClock overrides the time source used for client-side filtering.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(predictor Predictor, history HistorySource, opts ...Option) *Service {
	s := &Service{
		predictor: predictor,
		history:   history,
		mode:      FilterClient,
		now:       time.Now,
		logger:    log.With().Str("component", "crop_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FilterMode reports the configured filtering locus.
func (s *Service) FilterMode() FilterMode {
	return s.mode
}

// Predict resolves the visitor's place when possible and asks the prediction
// service for a yield estimate. A failed lookup falls back to the region payload.
func (s *Service) Predict(ctx context.Context, req PredictionRequest) (PredictionResponse, error) {
	if req.Coordinates == nil && req.Place != nil && !req.Place.IsZero() && s.locator != nil {
		coords, err := s.locator.Locate(ctx, *req.Place)
		if err != nil {
			s.logger.Warn().Err(err).Str("city", req.Place.City).Msg("geocoding failed; sending region instead")
		} else {
			req.Coordinates = &coords
		}
	}

	resp, err := s.predictor.Predict(ctx, req)
	if err != nil {
		return PredictionResponse{}, fmt.Errorf("predict: %w", err)
	}
	return resp, nil
}

// History returns the records inside the window sorted by ascending date.
func (s *Service) History(ctx context.Context, w TimeWindow) ([]HistoryRecord, error) {
	if w.Days() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWindow, w)
	}

	var query TimeWindow
	if s.mode == FilterServer {
		query = w
	}

	records, err := s.history.History(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if s.mode != FilterServer {
		records = FilterByWindow(records, w, s.now())
	}
	return SortByDate(records), nil
}

// Stats returns the history service's aggregate counters.
func (s *Service) Stats(ctx context.Context) (HistoryStats, error) {
	stats, err := s.history.Stats(ctx)
	if err != nil {
		return HistoryStats{}, fmt.Errorf("fetch history stats: %w", err)
	}
	return stats, nil
}

// Archive asks the history service to archive its active records.
func (s *Service) Archive(ctx context.Context) error {
	if err := s.history.Archive(ctx); err != nil {
		return fmt.Errorf("archive history: %w", err)
	}
	return nil
}
