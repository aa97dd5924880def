package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/thalysonbl/authgate/config"
	"github.com/thalysonbl/authgate/internal/adapters/backend"
	"github.com/thalysonbl/authgate/internal/adapters/cookies"
	"github.com/thalysonbl/authgate/internal/adapters/devauth"
	httpx "github.com/thalysonbl/authgate/internal/http"
	"github.com/thalysonbl/authgate/internal/ports"
	"github.com/thalysonbl/authgate/internal/service"
)

// AuthConfig contains configuration for the identity backend.
type AuthConfig struct {
	Auth   config.AuthConfig
	Logger *slog.Logger
}

// BuildBackendFactory creates the per-request identity backend factory for
// the configured auth mode.
func BuildBackendFactory(cfg AuthConfig) (httpx.BackendFactory, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		return buildDevBackend(cfg)
	case config.AuthModeBackend, "":
		return buildRemoteBackend(cfg)
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

func buildRemoteBackend(cfg AuthConfig) (httpx.BackendFactory, error) {
	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Auth.Backend.URL,
		Timeout: cfg.Auth.Backend.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("build backend client: %w", err)
	}
	if cfg.Logger != nil {
		cfg.Logger.Info("identity backend configured", "mode", config.AuthModeBackend, "url", cfg.Auth.Backend.URL)
	}
	return func() ports.IdentityBackend { return client.WithBearer("") }, nil
}

func buildDevBackend(cfg AuthConfig) (httpx.BackendFactory, error) {
	dev, err := devauth.NewBackend(devauth.Config{
		Email:       cfg.Auth.DevAuth.Email,
		Password:    cfg.Auth.DevAuth.Password,
		Permissions: cfg.Auth.DevAuth.Permissions,
		Roles:       cfg.Auth.DevAuth.Roles,
		Secret:      cfg.Auth.DevAuth.Secret,
		TokenTTL:    cfg.Auth.DevAuth.TokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("build dev identity backend: %w", err)
	}
	if cfg.Logger != nil {
		cfg.Logger.Warn("using mock identity backend", "email", cfg.Auth.DevAuth.Email)
	}
	return func() ports.IdentityBackend { return dev.WithBearer("") }, nil
}

// SessionConfigFrom maps auth settings onto the session defaults.
func SessionConfigFrom(auth config.AuthConfig, sync config.SyncConfig) service.SessionConfig {
	return service.SessionConfig{
		Names:       service.TokenNames{Access: auth.Cookies.TokenName, Refresh: auth.Cookies.RefreshName},
		ChannelName: sync.Channel,
		PublicPath:  auth.Paths.Public,
		LandingPath: auth.Paths.Landing,
	}
}

// CookieOptionsFrom builds the token cookie attributes.
func CookieOptionsFrom(cfg *config.AppConfig) cookies.Options {
	return cookies.Options{
		MaxAge:      cfg.Auth.Cookies.MaxAge,
		Domain:      cfg.HTTP.CookieDomain,
		ForceSecure: cfg.HTTP.CookieSecure,
	}
}
