package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
	"github.com/thalysonbl/authgate/internal/ports"
)

// Metric names emitted by Session.
const (
	MetricSignIn  = "auth.sign_in"
	MetricSignOut = "auth.sign_out"

	MetricBackendLatency = "auth.backend.duration"
)

var (
	errSessionMounted   = errors.New("session already mounted")
	errEmptyGrant       = errors.New("backend returned an empty token")
	errSignInSuperseded = errors.New("signed out while signing in")
)

// SessionPorts are the collaborators a Session drives.
// Backend, Slots and Navigator are required; Broker and Metrics are optional.
type SessionPorts struct {
	Backend   ports.IdentityBackend
	Slots     ports.TokenSlots
	Navigator ports.Navigator
	Broker    ports.SyncBroker
	Metrics   ports.MetricsSink
}

// SessionConfig holds names and destinations. Zero values take the defaults.
type SessionConfig struct {
	Names       TokenNames
	ChannelName string
	PublicPath  string
	LandingPath string
}

// DefaultSessionConfig returns the standard configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Names:       DefaultTokenNames(),
		ChannelName: DefaultChannelName,
		PublicPath:  DefaultPublicPath,
		LandingPath: DefaultLandingPath,
	}
}

func (c SessionConfig) withDefaults() SessionConfig {
	d := DefaultSessionConfig()
	c.Names = c.Names.withDefaults()
	if c.ChannelName == "" {
		c.ChannelName = d.ChannelName
	}
	if c.PublicPath == "" {
		c.PublicPath = d.PublicPath
	}
	if c.LandingPath == "" {
		c.LandingPath = d.LandingPath
	}
	return c
}

// SessionOptions groups dependencies for Session.
type SessionOptions struct {
	Ports  SessionPorts
	Config SessionConfig
	Logger *slog.Logger
}

// Session is the shared authentication state of one tab: who is signed in,
// with which permissions and roles. It persists tokens through the slots,
// keeps the backend's bearer in step with them, and follows sign-outs made by
// other sessions on the same sync channel.
type Session struct {
	backend   ports.IdentityBackend
	slots     ports.TokenSlots
	navigator ports.Navigator
	broker    ports.SyncBroker
	metrics   ports.MetricsSink
	cfg       SessionConfig
	logger    *slog.Logger

	mu      sync.Mutex
	state   domainauth.State
	epoch   uint64
	channel ports.SyncChannel
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSession constructs an unauthenticated Session.
func NewSession(opts SessionOptions) *Session {
	if opts.Ports.Backend == nil {
		panic("service: SessionPorts.Backend is required")
	}
	if opts.Ports.Slots == nil {
		panic("service: SessionPorts.Slots is required")
	}
	if opts.Ports.Navigator == nil {
		panic("service: SessionPorts.Navigator is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		backend:   opts.Ports.Backend,
		slots:     opts.Ports.Slots,
		navigator: opts.Ports.Navigator,
		broker:    opts.Ports.Broker,
		metrics:   opts.Ports.Metrics,
		cfg:       opts.Config.withDefaults(),
		logger:    logger.With("component", "session"),
		state:     domainauth.Unauthenticated(),
	}
}

// Mount opens the sync channel and starts following remote sign-outs until
// Close is called or ctx is done. Without a broker it is a no-op.
func (s *Session) Mount(ctx context.Context) error {
	if s.broker == nil {
		return nil
	}

	s.mu.Lock()
	mounted := s.channel != nil
	s.mu.Unlock()
	if mounted {
		return errSessionMounted
	}

	ch, err := s.broker.Open(ctx, s.cfg.ChannelName)
	if err != nil {
		return fmt.Errorf("open sync channel %q: %w", s.cfg.ChannelName, err)
	}

	listenCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.channel != nil {
		s.mu.Unlock()
		cancel()
		return errors.Join(errSessionMounted, ch.Close())
	}
	s.channel = ch
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.listen(listenCtx, ch)
	return nil
}

// Close stops the listener and releases the sync channel. Safe to call repeatedly.
func (s *Session) Close() error {
	s.mu.Lock()
	ch, cancel := s.channel, s.cancel
	s.channel, s.cancel = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	if ch == nil {
		return nil
	}
	if err := ch.Close(); err != nil {
		return fmt.Errorf("close sync channel: %w", err)
	}
	return nil
}

func (s *Session) listen(ctx context.Context, ch ports.SyncChannel) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch.Messages():
			if !ok {
				return
			}
			if msg != domainauth.SignOutMessage {
				s.logger.Debug("ignoring sync message", "message", msg)
				continue
			}
			s.signOutRemote()
		}
	}
}

// Restore re-establishes the session from a persisted access token.
// Without a token it leaves the session unauthenticated. If the backend
// rejects the token the session is signed out, unless a sign-in or sign-out
// already replaced the session while the call was in flight. A sign-out that
// lands while the backend call is in flight wins over the restored identity.
func (s *Session) Restore(ctx context.Context) error {
	token, ok := s.slots.Get(s.cfg.Names.Access)
	if !ok {
		return nil
	}

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	s.backend.SetBearer(token)
	started := time.Now()
	identity, err := s.backend.Me(ctx)
	s.timing(started, "call", "me")
	if err != nil {
		s.mu.Lock()
		stale := s.epoch != epoch
		s.mu.Unlock()
		if stale {
			s.logger.Debug("restore failed after the session changed", "error", err)
			return fmt.Errorf("restore session: %w", err)
		}
		s.logger.Info("restore failed, signing out", "error", err)
		if soErr := s.SignOut(ctx); soErr != nil {
			return errors.Join(fmt.Errorf("restore session: %w", err), soErr)
		}
		return fmt.Errorf("restore session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug("discarding restored identity after sign-out")
		return nil
	}
	if _, still := s.slots.Get(s.cfg.Names.Access); !still {
		s.logger.Debug("discarding restored identity, access token gone")
		return nil
	}
	s.state = domainauth.Authenticated(identity)
	return nil
}

// SignIn exchanges credentials for a token pair, persists it, installs the
// identity and navigates to the landing path. On failure nothing is persisted
// and the state is unchanged. A sign-out that lands before the identity is
// installed wins: SignIn then reports errSignInSuperseded.
func (s *Session) SignIn(ctx context.Context, creds domainauth.Credentials) error {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	started := time.Now()
	grant, err := s.backend.CreateSession(ctx, creds)
	s.timing(started, "call", "create_session")
	if err != nil {
		s.count(MetricSignIn, "result", "failure")
		s.logger.Warn("sign-in failed", "email", creds.Email, "error", err)
		return fmt.Errorf("sign in: %w", err)
	}
	if grant.Tokens.AccessToken == "" || grant.Tokens.RefreshToken == "" {
		s.count(MetricSignIn, "result", "failure")
		return fmt.Errorf("sign in: %w", errEmptyGrant)
	}

	if err := s.persist(grant.Tokens); err != nil {
		s.count(MetricSignIn, "result", "failure")
		return fmt.Errorf("sign in: %w", err)
	}

	identity := domainauth.NewIdentity(creds.Email, grant.Permissions, grant.Roles)
	s.mu.Lock()
	held, _ := s.slots.Get(s.cfg.Names.Access)
	if s.epoch != epoch || held != grant.Tokens.AccessToken {
		s.mu.Unlock()
		s.discard(grant.Tokens)
		s.count(MetricSignIn, "result", "failure")
		s.logger.Info("sign-in superseded by sign-out", "email", creds.Email)
		return fmt.Errorf("sign in: %w", errSignInSuperseded)
	}
	s.epoch++
	s.state = domainauth.Authenticated(identity)
	s.mu.Unlock()

	s.backend.SetBearer(grant.Tokens.AccessToken)
	s.count(MetricSignIn, "result", "success")
	s.logger.Info("signed in", "email", creds.Email)
	s.navigator.Navigate(s.cfg.LandingPath)
	return nil
}

func (s *Session) persist(tokens domainauth.TokenPair) error {
	if err := s.slots.Set(s.cfg.Names.Access, tokens.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if err := s.slots.Set(s.cfg.Names.Refresh, tokens.RefreshToken); err != nil {
		setErr := fmt.Errorf("store refresh token: %w", err)
		if rbErr := s.slots.Destroy(s.cfg.Names.Access); rbErr != nil {
			return errors.Join(setErr, fmt.Errorf("roll back access token: %w", rbErr))
		}
		return setErr
	}
	return nil
}

// discard removes a pair persisted by a superseded sign-in. Slots already
// holding someone else's token are left alone.
func (s *Session) discard(tokens domainauth.TokenPair) {
	if held, ok := s.slots.Get(s.cfg.Names.Access); !ok || held != tokens.AccessToken {
		return
	}
	for _, name := range []string{s.cfg.Names.Access, s.cfg.Names.Refresh} {
		if err := s.slots.Destroy(name); err != nil {
			s.logger.Warn("discard superseded token", "slot", name, "error", err)
		}
	}
}

// SignOut clears the session, navigates to the public path and tells other
// sessions on the channel to sign out too. It is idempotent.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.epoch++
	s.state = domainauth.Unauthenticated()
	ch := s.channel
	s.mu.Unlock()

	s.backend.SetBearer("")
	s.count(MetricSignOut, "source", "local")

	return SignOut(ctx, SignOutDeps{
		Slots:      s.slots,
		Channel:    ch,
		Navigator:  s.navigator,
		Names:      s.cfg.Names,
		PublicPath: s.cfg.PublicPath,
	})
}

// signOutRemote follows a sign-out made elsewhere. It never re-broadcasts.
// A session that is already signed out only clears the slots.
func (s *Session) signOutRemote() {
	s.mu.Lock()
	s.epoch++
	wasAuthenticated := s.state.IsAuthenticated()
	s.state = domainauth.Unauthenticated()
	s.mu.Unlock()

	s.backend.SetBearer("")
	s.count(MetricSignOut, "source", "remote")

	deps := SignOutDeps{Slots: s.slots, Names: s.cfg.Names, PublicPath: s.cfg.PublicPath}
	if wasAuthenticated {
		deps.Navigator = s.navigator
	}
	if err := SignOut(context.Background(), deps); err != nil {
		s.logger.Warn("remote sign-out incomplete", "error", err)
		return
	}
	s.logger.Info("signed out by another session")
}

// State returns a snapshot of the session state.
func (s *Session) State() domainauth.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the signed-in identity, if any.
func (s *Session) Identity() (domainauth.Identity, bool) {
	return s.State().Identity()
}

// IsAuthenticated reports whether an identity is held.
func (s *Session) IsAuthenticated() bool {
	return s.State().IsAuthenticated()
}

// Can reports whether the signed-in identity satisfies req.
// An unauthenticated session can do nothing, not even satisfy an empty requirement.
func (s *Session) Can(req domainauth.Requirement) bool {
	identity, ok := s.Identity()
	if !ok {
		return false
	}
	return domainauth.Evaluate(identity, req)
}

func (s *Session) timing(started time.Time, tagKey, tagValue string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Timing(MetricBackendLatency, time.Since(started), map[string]string{tagKey: tagValue})
}

func (s *Session) count(name, tagKey, tagValue string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Count(name, 1, map[string]string{tagKey: tagValue})
}
