package httpx

import (
	"log/slog"
	"net/http"

	"github.com/thalysonbl/authgate/internal/adapters/cookies"
	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
	"github.com/thalysonbl/authgate/internal/ports"
	"github.com/thalysonbl/authgate/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	NewBackend    BackendFactory
	Decoder       ports.ClaimsDecoder
	Broker        ports.SyncBroker // optional: without it sign-outs are not broadcast
	Session       service.SessionConfig
	ForbiddenPath string
	Cookies       cookies.Options
	SignInLimiter *RateLimiter // optional
	Metrics       ports.MetricsSink
	Logger        *slog.Logger
}

// NewRouter creates and configures the portal router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := services.Session
	if cfg.Names.Access == "" || cfg.Names.Refresh == "" {
		cfg.Names = service.DefaultTokenNames()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		NewBackend: services.NewBackend,
		Broker:     services.Broker,
		Session:    cfg,
		Cookies:    services.Cookies,
		Metrics:    services.Metrics,
		Logger:     logger,
	}
	guard := NewGuard(GuardOptions{
		Decoder: services.Decoder,
		Paths:   GuardPaths{Public: cfg.PublicPath, Forbidden: services.ForbiddenPath},
		Names:   cfg.Names,
		Metrics: services.Metrics,
		Logger:  logger,
	})
	pages := &PageHandlers{NewBackend: services.NewBackend, Decoder: services.Decoder, Names: cfg.Names}
	events := &EventHandlers{Broker: services.Broker, ChannelName: cfg.ChannelName, Logger: logger}

	registerAuthRoutes(mux, authHandlers, services.SignInLimiter)
	registerPageRoutes(mux, pageRouteConfig{Guard: guard, Pages: pages, Cookies: services.Cookies, Logger: logger})
	mux.Handle("GET /events", http.HandlerFunc(events.Stream))
	health := healthHandler(services.Broker != nil)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	return DeviceID(services.Cookies)(mux)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, limiter *RateLimiter) {
	var signIn http.Handler = http.HandlerFunc(h.SignIn)
	if limiter != nil {
		signIn = limiter.Middleware(signIn)
	}
	mux.Handle("GET /{$}", http.HandlerFunc(h.Home))
	mux.Handle("POST /sign-in", signIn)
	mux.Handle("POST /sign-out", http.HandlerFunc(h.SignOut))
	mux.Handle("GET /session", http.HandlerFunc(h.Status))
}

type pageRouteConfig struct {
	Guard   *Guard
	Pages   *PageHandlers
	Cookies cookies.Options
	Logger  *slog.Logger
}

func registerPageRoutes(mux *http.ServeMux, cfg pageRouteConfig) {
	dashboard := cfg.Guard.WithAuth(cfg.Pages.Dashboard, nil)
	metrics := cfg.Guard.WithAuth(cfg.Pages.Metrics, domainauth.RequirePermissions(domainauth.PermissionMetricsView))

	mux.Handle("GET /dashboard", PageHandler(dashboard, cfg.Cookies, cfg.Logger))
	mux.Handle("GET /metrics", PageHandler(metrics, cfg.Cookies, cfg.Logger))
}
