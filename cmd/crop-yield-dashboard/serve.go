package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/crop-yield-dashboard/internal/api/http"
	"github.com/i474232898/crop-yield-dashboard/internal/config"
	"github.com/i474232898/crop-yield-dashboard/internal/crop"
	"github.com/i474232898/crop-yield-dashboard/internal/crop/remote"
	"github.com/i474232898/crop-yield-dashboard/internal/dashboard"
	"github.com/i474232898/crop-yield-dashboard/internal/logging"
	"github.com/i474232898/crop-yield-dashboard/internal/metrics"
	"github.com/i474232898/crop-yield-dashboard/internal/scheduler"
	"github.com/i474232898/crop-yield-dashboard/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	client := remote.NewClient(remote.Options{
		PredictionURL:  cfg.PredictionAPIURL,
		HistoryURL:     cfg.HistoryAPIURL,
		HTTPClient:     httpClient,
		RequestsPerSec: cfg.UpstreamRPS,
		Backoff:        remote.BackoffConfig{MaxRetries: cfg.UpstreamMaxRetries},
		Breaker: remote.BreakerConfig{
			ConsecutiveFailures: uint32(cfg.BreakerFailures),
			Timeout:             cfg.BreakerTimeout,
		},
		Metrics: m,
	})

	opts := []crop.Option{crop.WithFilterMode(crop.FilterMode(cfg.HistoryFilter))}
	if cfg.GeocoderAPIKey != "" {
		opts = append(opts, crop.WithLocator(remote.NewGeocodeLocator(cfg.GeocoderAPIKey)))
	}
	service := crop.NewService(client, client, opts...)

	sessions := store.NewMemoryStore(cfg.SessionMaxCount, cfg.SessionMaxAge)
	advice := crop.DefaultAdvice()
	dash := dashboard.New(service, sessions, advice, m)

	sched := scheduler.New(cfg.SessionPruneInterval, sessions, m)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := newApp(httpapi.Deps{Service: service, Dashboard: dash, Advice: advice}, reg)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()
	log.Info().
		Str("port", cfg.Port).
		Str("prediction_api", cfg.PredictionAPIURL).
		Str("history_api", cfg.HistoryAPIURL).
		Str("history_filter", cfg.HistoryFilter).
		Msg("dashboard listening")

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newApp(deps httpapi.Deps, gatherer prometheus.Gatherer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "crop-yield-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "crop-yield-dashboard",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	httpapi.RegisterRoutes(app, deps)
	return app
}
