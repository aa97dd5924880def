package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/thalysonbl/authgate/config"
)

// RunConfig groups dependencies for RunWithShutdown.
type RunConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunWithShutdown serves the portal and its background sweepers until
// SIGINT/SIGTERM or the first component failure.
func RunWithShutdown(ctx context.Context, cfg *RunConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("run config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := NewHTTPServer(&HTTPServerConfig{Config: cfg.Config, Services: cfg.Services, Logger: logger})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ServeHTTP(gctx, server, logger) })
	if limiter := cfg.Services.SignInLimiter; limiter != nil {
		g.Go(func() error { return limiter.Run(gctx) })
	}

	err := g.Wait()
	if cerr := cfg.Services.Metrics.Close(); cerr != nil {
		logger.Warn("close statsd client", "error", cerr)
	}
	return err
}
