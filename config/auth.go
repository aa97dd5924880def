package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode selects the identity backend.
type AuthMode string

const (
	// AuthModeBackend talks to the remote identity backend over HTTP.
	AuthModeBackend AuthMode = "backend"
	// AuthModeMock uses the in-process dev backend (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "backend", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: backend, mock)", v)
	}
}

// BackendConfig points at the remote identity backend.
type BackendConfig struct {
	URL     string        `env:"URL"     envDefault:"http://localhost:3333"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// DevAuthConfig controls the mock identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	Email       string        `env:"EMAIL"       envDefault:"dev@example.com"`
	Password    string        `env:"PASSWORD"    envDefault:"dev"`
	Permissions []string      `env:"PERMISSIONS" envDefault:"users.list;metrics.view" envSeparator:";"`
	Roles       []string      `env:"ROLES"       envDefault:"administrator"           envSeparator:";"`
	Secret      string        `env:"SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL"   envDefault:"8h"`
}

// CookieConfig names the token cookies and sets their lifetime.
type CookieConfig struct {
	TokenName   string        `env:"TOKEN_COOKIE"   envDefault:"nextauth.token"`
	RefreshName string        `env:"REFRESH_COOKIE" envDefault:"nextauth.refreshToken"`
	MaxAge      time.Duration `env:"COOKIE_MAX_AGE" envDefault:"720h"`
}

// PathConfig holds redirect destinations.
type PathConfig struct {
	Public    string `env:"PUBLIC_PATH"    envDefault:"/"`
	Landing   string `env:"LANDING_PATH"   envDefault:"/dashboard"`
	Forbidden string `env:"FORBIDDEN_PATH" envDefault:"/dashboard"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity backend to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"backend"`

	// Backend configuration (used when Mode=backend).
	Backend BackendConfig `envPrefix:"AUTH_BACKEND_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	Cookies CookieConfig `envPrefix:"AUTH_"`
	Paths   PathConfig   `envPrefix:"AUTH_"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	a.Backend.URL = strings.TrimRight(strings.TrimSpace(a.Backend.URL), "/")
	if a.Backend.Timeout <= 0 {
		a.Backend.Timeout = 10 * time.Second
	}
	if a.Cookies.MaxAge <= 0 {
		a.Cookies.MaxAge = 720 * time.Hour
	}
	a.Paths.Public = sanitizePath(a.Paths.Public, "/")
	a.Paths.Landing = sanitizePath(a.Paths.Landing, "/dashboard")
	a.Paths.Forbidden = sanitizePath(a.Paths.Forbidden, "/dashboard")
}

// sanitizePath keeps in-app destinations relative and free of stray whitespace.
func sanitizePath(p, def string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return def
	}
	return p
}
