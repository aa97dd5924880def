package bootstrap

import (
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/thalysonbl/authgate/config"
	"github.com/thalysonbl/authgate/internal/adapters/jwtclaims"
	httpx "github.com/thalysonbl/authgate/internal/http"
	"github.com/thalysonbl/authgate/internal/observability/statsd"
	"github.com/thalysonbl/authgate/internal/ports"
)

// ServiceContainer holds the wired portal dependencies.
type ServiceContainer struct {
	NewBackend    httpx.BackendFactory
	Decoder       ports.ClaimsDecoder
	Broker        ports.SyncBroker
	SignInLimiter *httpx.RateLimiter
	Metrics       *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires adapters for the configured modes.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps require config")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	factory, err := BuildBackendFactory(AuthConfig{Auth: cfg.Auth, Logger: logger})
	if err != nil {
		return ServiceContainer{}, err
	}
	broker, err := BuildSyncBroker(SyncDeps{Sync: cfg.Sync, RedisClient: deps.RedisClient, Logger: logger})
	if err != nil {
		return ServiceContainer{}, err
	}

	return ServiceContainer{
		NewBackend: factory,
		Decoder:    jwtclaims.Decoder{},
		Broker:     broker,
		SignInLimiter: httpx.NewRateLimiter(httpx.RateLimitConfig{
			Rate:              rate.Limit(cfg.HTTP.SignInRate),
			Burst:             cfg.HTTP.SignInBurst,
			TrustProxyHeaders: cfg.HTTP.TrustedProxy,
		}),
		Metrics: buildMetrics(logger, cfg.Observability.Metrics),
	}, nil
}

// buildMetrics returns nil when metrics are disabled or the sink cannot be dialled.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// metricsSink avoids handing a typed nil to consumers that check for nil.
//
//nolint:ireturn // callers only need the port.
func (c ServiceContainer) metricsSink() ports.MetricsSink {
	if c.Metrics == nil {
		return nil
	}
	return c.Metrics
}
