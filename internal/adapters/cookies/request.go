package cookies

import (
	"errors"
	"net/http"
	"sync"

	"github.com/thalysonbl/authgate/internal/ports"
)

var _ ports.TokenSlots = (*RequestSlots)(nil)

// RequestSlots reads token cookies from an incoming request and writes
// Set-Cookie headers on its response. Writes made during the request are
// visible to later reads in the same request.
type RequestSlots struct {
	w    http.ResponseWriter
	r    *http.Request
	opts Options

	mu      sync.Mutex
	pending map[string]*string // nil value: destroyed in this request
}

// ForRequest scopes token slots to one request/response pair.
func ForRequest(w http.ResponseWriter, r *http.Request, opts Options) *RequestSlots {
	return &RequestSlots{w: w, r: r, opts: opts, pending: make(map[string]*string)}
}

func (s *RequestSlots) Get(name string) (string, bool) {
	s.mu.Lock()
	v, touched := s.pending[name]
	s.mu.Unlock()
	if touched {
		if v == nil {
			return "", false
		}
		return *v, true
	}

	c, err := s.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *RequestSlots) Set(name, value string) error {
	if name == "" {
		return errors.New("cookie name is required")
	}
	http.SetCookie(s.w, s.opts.tokenCookie(name, value, IsSecureRequest(s.r)))
	s.mu.Lock()
	s.pending[name] = &value
	s.mu.Unlock()
	return nil
}

func (s *RequestSlots) Destroy(name string) error {
	if name == "" {
		return errors.New("cookie name is required")
	}
	http.SetCookie(s.w, s.opts.expiredCookie(name, IsSecureRequest(s.r)))
	s.mu.Lock()
	s.pending[name] = nil
	s.mu.Unlock()
	return nil
}
