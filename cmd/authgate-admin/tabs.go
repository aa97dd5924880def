package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thalysonbl/authgate/internal/adapters/cookies"
	"github.com/thalysonbl/authgate/internal/bootstrap"
	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
	httpx "github.com/thalysonbl/authgate/internal/http"
	"github.com/thalysonbl/authgate/internal/ports"
	"github.com/thalysonbl/authgate/internal/service"
)

type tabsOptions struct {
	Count    int
	Origin   string
	Email    string
	Password string
	Hold     time.Duration
	Settle   time.Duration
}

func parseTabsOptions(args []string) (tabsOptions, error) {
	fs := flag.NewFlagSet("tabs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts tabsOptions
	fs.IntVar(&opts.Count, "count", 3, "Number of tabs sharing one cookie jar")
	fs.StringVar(&opts.Origin, "origin", "http://localhost:8080", "Origin the cookies belong to")
	fs.StringVar(&opts.Email, "email", "", "Email to sign in with (required)")
	fs.StringVar(&opts.Password, "password", "", "Password to sign in with (required)")
	fs.DurationVar(&opts.Hold, "hold", 0, "How long to stay signed in before the first tab signs out")
	fs.DurationVar(&opts.Settle, "settle", 2*time.Second, "How long to wait for other tabs to follow the sign-out")

	if err := fs.Parse(args); err != nil {
		return tabsOptions{}, err
	}
	if opts.Count < 1 {
		return tabsOptions{}, errors.New("--count must be at least 1")
	}
	if opts.Email == "" || opts.Password == "" {
		return tabsOptions{}, errors.New("--email and --password are required")
	}
	return opts, nil
}

func runTabs(ctx *commandContext, args []string) error {
	opts, err := parseTabsOptions(args)
	if err != nil {
		return err
	}

	factory, err := bootstrap.BuildBackendFactory(bootstrap.AuthConfig{Auth: ctx.Config.Auth, Logger: ctx.Logger})
	if err != nil {
		return err
	}
	infra, err := connectSync(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			ctx.Logger.Warn("close sync infra", "error", cerr)
		}
	}()

	return simulateTabs(ctx.Ctx, tabsRequest{
		Options:    opts,
		NewBackend: factory,
		Broker:     infra.Broker,
		Session:    bootstrap.SessionConfigFrom(ctx.Config.Auth, ctx.Config.Sync),
		Cookies:    bootstrap.CookieOptionsFrom(&ctx.Config),
		Out:        ctx.Out,
		Logger:     ctx.Logger,
	})
}

type tabsRequest struct {
	Options    tabsOptions
	NewBackend httpx.BackendFactory
	Broker     ports.SyncBroker
	Session    service.SessionConfig
	Cookies    cookies.Options
	Out        io.Writer
	Logger     *slog.Logger
}

// lockedWriter serialises output from tabs reacting concurrently.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = writef(l.w, format, args...)
}

type tabNavigator struct {
	tab int
	out *lockedWriter
}

func (n *tabNavigator) Navigate(path string) { n.out.printf("tab %d -> %s\n", n.tab, path) }

// simulateTabs signs in on the first tab, restores the rest from the shared
// jar, then signs the first tab out and reports which tabs followed.
func simulateTabs(ctx context.Context, req tabsRequest) error {
	jar, err := cookies.NewJar(req.Options.Origin, req.Cookies)
	if err != nil {
		return err
	}
	out := &lockedWriter{w: req.Out}

	tabs := make([]*service.Session, req.Options.Count)
	defer func() {
		for _, t := range tabs {
			if t != nil {
				_ = t.Close()
			}
		}
	}()
	for i := range tabs {
		tabs[i] = service.NewSession(service.SessionOptions{
			Ports: service.SessionPorts{
				Backend:   req.NewBackend(),
				Slots:     jar,
				Navigator: &tabNavigator{tab: i + 1, out: out},
				Broker:    req.Broker,
			},
			Config: req.Session,
			Logger: req.Logger,
		})
		if err := tabs[i].Mount(ctx); err != nil {
			return fmt.Errorf("mount tab %d: %w", i+1, err)
		}
	}

	creds := domainauth.Credentials{Email: req.Options.Email, Password: req.Options.Password}
	if err := tabs[0].SignIn(ctx, creds); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tabs[1:] {
		g.Go(func() error {
			if err := t.Restore(gctx); err != nil {
				return fmt.Errorf("restore tab %d: %w", i+2, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	printTabStates(out, tabs)

	if req.Options.Hold > 0 {
		select {
		case <-time.After(req.Options.Hold):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := tabs[0].SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if !waitSignedOut(ctx, tabs, req.Options.Settle) {
		out.printf("some tabs are still signed in after %s\n", req.Options.Settle)
	}
	printTabStates(out, tabs)
	return nil
}

func printTabStates(out *lockedWriter, tabs []*service.Session) {
	for i, t := range tabs {
		id, ok := t.Identity()
		if !ok {
			out.printf("tab %d: signed out\n", i+1)
			continue
		}
		out.printf("tab %d: %s [%s]\n", i+1, id.Email, strings.Join(id.Roles, ", "))
	}
}

// waitSignedOut polls until every tab is unauthenticated or the deadline passes.
func waitSignedOut(ctx context.Context, tabs []*service.Session, within time.Duration) bool {
	deadline := time.Now().Add(within)
	for {
		all := true
		for _, t := range tabs {
			if t.IsAuthenticated() {
				all = false
				break
			}
		}
		if all {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
