package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type AppConfig struct {
	Port string `validate:"required,numeric"`

	// Base URLs of the remote services.
	PredictionAPIURL string `validate:"required,url"`
	HistoryAPIURL    string `validate:"required,url"`

	HTTPTimeout time.Duration `validate:"gt=0"`

	// HistoryFilter is "client" (date arithmetic here) or "server" (time_period query).
	HistoryFilter string `validate:"oneof=client server"`

	// Outbound resilience.
	UpstreamRPS        int           `validate:"gt=0"`
	UpstreamMaxRetries int           `validate:"gte=0"`
	BreakerFailures    int           `validate:"gt=0"`
	BreakerTimeout     time.Duration `validate:"gt=0"`

	// GeocoderAPIKey enables the latitude/longitude prediction payload.
	GeocoderAPIKey string

	// Session retention.
	SessionMaxCount      int           // 0 = unlimited
	SessionMaxAge        time.Duration // 0 = unlimited
	SessionPruneInterval time.Duration `validate:"gt=0"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=console json"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.PredictionAPIURL = getenvDefault("PREDICTION_API_URL", "http://localhost:8000")
	cfg.HistoryAPIURL = getenvDefault("HISTORY_API_URL", cfg.PredictionAPIURL)
	cfg.HistoryFilter = strings.ToLower(getenvDefault("HISTORY_FILTER", "client"))
	cfg.UpstreamRPS = getenvInt("UPSTREAM_RPS", 5)
	cfg.UpstreamMaxRetries = getenvInt("UPSTREAM_MAX_RETRIES", 0)
	cfg.BreakerFailures = getenvInt("BREAKER_FAILURES", 5)
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.SessionMaxCount = getenvInt("SESSION_MAX_COUNT", 1000)
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "console"))

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.BreakerTimeout, err = getenvDuration("BREAKER_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.SessionMaxAge, err = getenvDuration("SESSION_MAX_AGE", "2h"); err != nil {
		return nil, err
	}
	if cfg.SessionPruneInterval, err = getenvDuration("SESSION_PRUNE_INTERVAL", "5m"); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
