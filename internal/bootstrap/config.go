package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/thalysonbl/authgate/config"
)

// InitLogger initializes the structured logger.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateConfig rejects combinations the portal cannot run with.
func ValidateConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cfg.Auth.Mode == config.AuthModeBackend && cfg.Auth.Backend.URL == "" {
		return errors.New("AUTH_BACKEND_URL is required when AUTH_MODE=backend")
	}
	if cfg.Auth.Mode == config.AuthModeMock && !cfg.IsDev {
		slog.Default().Warn("mock identity backend enabled outside development mode")
	}
	if cfg.Auth.Cookies.TokenName == cfg.Auth.Cookies.RefreshName {
		return errors.New("AUTH_TOKEN_COOKIE and AUTH_REFRESH_COOKIE must differ")
	}
	return nil
}
