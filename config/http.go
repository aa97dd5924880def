package config

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for token and device cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CookieSecure forces the Secure attribute even on plain HTTP requests.
	CookieSecure bool `env:"APP_COOKIE_SECURE" envDefault:"false"`

	// SignInRate is the sustained sign-in attempts per second allowed per client IP.
	// Zero or negative disables limiting.
	SignInRate float64 `env:"SIGN_IN_RATE" envDefault:"0.2"`

	// SignInBurst is the number of sign-in attempts allowed back to back.
	SignInBurst int `env:"SIGN_IN_BURST" envDefault:"5"`

	// TrustedProxy keys sign-in limiting on X-Real-IP / X-Forwarded-For.
	// Leave off unless a proxy in front overwrites those headers.
	TrustedProxy bool `env:"TRUSTED_PROXY" envDefault:"false"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	if h.SignInBurst < 1 {
		h.SignInBurst = 1
	}
}
