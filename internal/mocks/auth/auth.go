package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
	"github.com/thalysonbl/authgate/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityBackend = (*FakeBackend)(nil)
	_ ports.TokenSlots      = (*MemorySlots)(nil)
	_ ports.Navigator       = (*RecordingNavigator)(nil)
	_ ports.MetricsSink     = (*CountingSink)(nil)
)

// FakeBackend simulates the identity backend with deterministic answers.
type FakeBackend struct {
	CreateSessionFunc func(ctx context.Context, creds domainauth.Credentials) (domainauth.SessionGrant, error)
	MeFunc            func(ctx context.Context, bearer string) (domainauth.Identity, error)

	// Defaults used when the funcs above are nil.
	Grant    domainauth.SessionGrant
	Identity domainauth.Identity

	mu          sync.Mutex
	bearer      string
	signInCalls int
	meCalls     int
}

// NewFakeBackend creates a FakeBackend with sensible defaults.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Grant: domainauth.SessionGrant{
			Tokens:      domainauth.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"},
			Permissions: []string{"users.list", domainauth.PermissionMetricsView},
			Roles:       []string{domainauth.RoleAdministrator},
		},
		Identity: domainauth.NewIdentity(
			"mock.user@example.com",
			[]string{"users.list", domainauth.PermissionMetricsView},
			[]string{domainauth.RoleAdministrator},
		),
	}
}

func (f *FakeBackend) CreateSession(ctx context.Context, creds domainauth.Credentials) (domainauth.SessionGrant, error) {
	f.mu.Lock()
	f.signInCalls++
	f.mu.Unlock()
	if f.CreateSessionFunc != nil {
		return f.CreateSessionFunc(ctx, creds)
	}
	return f.Grant, nil
}

func (f *FakeBackend) Me(ctx context.Context) (domainauth.Identity, error) {
	f.mu.Lock()
	f.meCalls++
	bearer := f.bearer
	f.mu.Unlock()
	if f.MeFunc != nil {
		return f.MeFunc(ctx, bearer)
	}
	if bearer == "" {
		return domainauth.Identity{}, &domainauth.TokenError{Code: "token.missing"}
	}
	return f.Identity, nil
}

func (f *FakeBackend) SetBearer(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bearer = token
}

// Bearer returns the currently attached bearer token.
func (f *FakeBackend) Bearer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bearer
}

// Calls returns how many times CreateSession and Me were invoked.
func (f *FakeBackend) Calls() (signIn, me int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signInCalls, f.meCalls
}

// MemorySlots is an in-memory token slot store for unit tests.
// Several sessions may share one MemorySlots to model a shared cookie store.
type MemorySlots struct {
	mu     sync.Mutex
	values map[string]string
	writes int
}

// NewMemorySlots creates an empty MemorySlots.
func NewMemorySlots() *MemorySlots {
	return &MemorySlots{values: make(map[string]string)}
}

func (m *MemorySlots) Get(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	return v, ok
}

func (m *MemorySlots) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	m.writes++
	return nil
}

func (m *MemorySlots) Destroy(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
	return nil
}

// Writes returns the number of Set calls observed.
func (m *MemorySlots) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// RecordingNavigator records every navigation in order.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *RecordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

// Paths returns a copy of the recorded destinations.
func (n *RecordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// CountingSink records counter increments and timings keyed by metric name.
type CountingSink struct {
	mu      sync.Mutex
	counts  map[string]int64
	tags    map[string][]map[string]string
	timings map[string][]map[string]string
}

// NewCountingSink creates an empty CountingSink.
func NewCountingSink() *CountingSink {
	return &CountingSink{
		counts:  make(map[string]int64),
		tags:    make(map[string][]map[string]string),
		timings: make(map[string][]map[string]string),
	}
}

func (c *CountingSink) Timing(name string, _ time.Duration, tags map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timings[name] = append(c.timings[name], tags)
}

// Timed returns how many timings of name carried tag key=value.
func (c *CountingSink) Timed(name, key, value string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timings[name] {
		if t[key] == value {
			n++
		}
	}
	return n
}

func (c *CountingSink) Count(name string, value int64, tags map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name] += value
	c.tags[name] = append(c.tags[name], tags)
}

// Total returns the summed value recorded for name.
func (c *CountingSink) Total(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// Tagged returns how many increments of name carried tag key=value.
func (c *CountingSink) Tagged(name, key, value string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tags[name] {
		if t[key] == value {
			n++
		}
	}
	return n
}
