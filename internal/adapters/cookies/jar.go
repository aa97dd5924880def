package cookies

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/thalysonbl/authgate/internal/ports"
	"golang.org/x/net/publicsuffix"
)

var _ ports.TokenSlots = (*Jar)(nil)

// Jar stores token cookies the way a browser does for one origin.
// Every session created over the same Jar sees the same cookies, like tabs of
// one browser profile. The underlying http.CookieJar can be handed to an
// http.Client so the tokens travel to the origin automatically.
type Jar struct {
	jar    *cookiejar.Jar
	origin *url.URL
	opts   Options
}

// NewJar creates a cookie jar scoped to origin (e.g. "https://app.example.com").
func NewJar(origin string, opts Options) (*Jar, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if u.Host == "" {
		return nil, errors.New("origin must include a host")
	}
	u.Path = "/"

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Jar{jar: jar, origin: u, opts: opts}, nil
}

// CookieJar exposes the jar for use with http.Client.
func (j *Jar) CookieJar() http.CookieJar { return j.jar }

func (j *Jar) Get(name string) (string, bool) {
	for _, c := range j.jar.Cookies(j.origin) {
		if c.Name == name && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

func (j *Jar) Set(name, value string) error {
	if name == "" {
		return errors.New("cookie name is required")
	}
	j.jar.SetCookies(j.origin, []*http.Cookie{j.opts.tokenCookie(name, value, j.origin.Scheme == "https")})
	return nil
}

func (j *Jar) Destroy(name string) error {
	if name == "" {
		return errors.New("cookie name is required")
	}
	j.jar.SetCookies(j.origin, []*http.Cookie{j.opts.expiredCookie(name, j.origin.Scheme == "https")})
	return nil
}
