package cookies

// Package cookies provides token slot stores backed by HTTP cookies: one scoped
// to a single server request/response, one modelled on a browser's cookie jar.

import (
	"net/http"
	"strings"
	"time"
)

// DefaultMaxAge is the nominal lifetime of both token cookies.
const DefaultMaxAge = 30 * 24 * time.Hour

// Options controls how token cookies are written.
type Options struct {
	// MaxAge is the cookie lifetime; zero means DefaultMaxAge.
	MaxAge time.Duration
	// Domain is the cookie domain. Leave empty to use the request host.
	Domain string
	// HTTPOnly hides the cookies from page scripts.
	HTTPOnly bool
	// ForceSecure marks cookies Secure even on plain HTTP requests.
	ForceSecure bool
}

func (o Options) maxAgeSeconds() int {
	if o.MaxAge <= 0 {
		return int(DefaultMaxAge.Seconds())
	}
	return int(o.MaxAge.Seconds())
}

// tokenCookie builds a path-wide cookie with the configured attributes.
func (o Options) tokenCookie(name, value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   o.Domain,
		HttpOnly: o.HTTPOnly,
		Secure:   secure || o.ForceSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   o.maxAgeSeconds(),
	}
}

// expiredCookie mirrors tokenCookie's attributes so browsers match and drop it.
func (o Options) expiredCookie(name string, secure bool) *http.Cookie {
	c := o.tokenCookie(name, "", secure)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0).UTC()
	return c
}

// IsSecureRequest reports whether r arrived over TLS, directly or via a proxy.
func IsSecureRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
