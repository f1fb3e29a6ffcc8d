package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/crop-yield-dashboard/internal/metrics"
)

// Pruner drops expired sessions.
type Pruner interface {
	Prune() int
	Len() int
}

// Scheduler periodically prunes idle dashboard sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pruner    Pruner
	metrics   *metrics.Metrics
	interval  time.Duration
	logger    zerolog.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, pruner Pruner, m *metrics.Metrics) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		pruner:    pruner,
		metrics:   m,
		interval:  interval,
		logger:    log.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the prune job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce prunes expired sessions and publishes the remaining count.
func (s *Scheduler) RunOnce() {
	removed := s.pruner.Prune()
	remaining := s.pruner.Len()
	s.metrics.SetSessions(remaining)
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Int("remaining", remaining).Msg("pruned idle sessions")
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
