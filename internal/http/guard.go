package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
	"github.com/thalysonbl/authgate/internal/ports"
	"github.com/thalysonbl/authgate/internal/service"
)

// MetricGuard counts guard outcomes, tagged with "outcome".
const MetricGuard = "auth.guard"

// Guard outcomes.
const (
	OutcomeAllowed     = "allowed"
	OutcomeMissing     = "missing_credential"
	OutcomeMalformed   = "malformed_token"
	OutcomeForbidden   = "insufficient_privilege"
	OutcomeInvalidated = "token_invalid"
)

// PageContext is what a guarded page sees of the request.
type PageContext struct {
	Request *http.Request
	Slots   ports.TokenSlots
}

// PageResult is either a redirect or props to render.
type PageResult struct {
	Redirect string
	Status   int
	Props    any
}

// RedirectTo returns a redirect result.
func RedirectTo(path string) PageResult { return PageResult{Redirect: path} }

// PageFunc produces a page for one request.
type PageFunc func(ctx context.Context, pc *PageContext) (PageResult, error)

// GuardOptions groups dependencies for Guard.
type GuardOptions struct {
	Decoder ports.ClaimsDecoder
	Paths   GuardPaths
	Names   service.TokenNames
	Metrics ports.MetricsSink
	Logger  *slog.Logger
}

// GuardPaths are the redirect destinations. Zero values take the defaults.
type GuardPaths struct {
	Public    string
	Forbidden string
}

// Guard decorates page functions with credential and privilege checks.
type Guard struct {
	decoder ports.ClaimsDecoder
	paths   GuardPaths
	names   service.TokenNames
	metrics ports.MetricsSink
	logger  *slog.Logger
}

// NewGuard constructs a Guard. Decoder is required.
func NewGuard(opts GuardOptions) *Guard {
	if opts.Decoder == nil {
		panic("httpx: GuardOptions.Decoder is required")
	}
	paths := opts.Paths
	if paths.Public == "" {
		paths.Public = service.DefaultPublicPath
	}
	if paths.Forbidden == "" {
		paths.Forbidden = service.DefaultLandingPath
	}
	names := opts.Names
	if names.Access == "" || names.Refresh == "" {
		names = service.DefaultTokenNames()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		decoder: opts.Decoder,
		paths:   paths,
		names:   names,
		metrics: opts.Metrics,
		logger:  logger.With("component", "guard"),
	}
}

// WithAuth wraps fn so it only runs for a request carrying an access token
// that satisfies req. A nil req only requires the token to be present; the
// token is not decoded in that case. If fn reports an invalid or expired
// token, both token cookies are destroyed and the user is sent to the public
// path. Any other error from fn is returned unchanged.
func (g *Guard) WithAuth(fn PageFunc, req *domainauth.Requirement) PageFunc {
	return func(ctx context.Context, pc *PageContext) (PageResult, error) {
		token, ok := pc.Slots.Get(g.names.Access)
		if !ok {
			g.redirected(ctx, pc, OutcomeMissing, domainauth.ErrMissingCredential)
			return RedirectTo(g.paths.Public), nil
		}

		if req != nil {
			claims, err := g.decoder.Decode(token)
			if err != nil {
				g.clear(ctx, pc)
				g.redirected(ctx, pc, OutcomeMalformed, err)
				return RedirectTo(g.paths.Public), nil
			}
			if !domainauth.Evaluate(claims, *req) {
				g.redirected(ctx, pc, OutcomeForbidden, domainauth.ErrInsufficientPrivilege)
				return RedirectTo(g.paths.Forbidden), nil
			}
		}

		res, err := fn(ctx, pc)
		if err != nil {
			if errors.Is(err, domainauth.ErrTokenInvalid) {
				g.clear(ctx, pc)
				g.redirected(ctx, pc, OutcomeInvalidated, err)
				return RedirectTo(g.paths.Public), nil
			}
			return PageResult{}, err
		}
		g.count(OutcomeAllowed)
		return res, nil
	}
}

func (g *Guard) clear(ctx context.Context, pc *PageContext) {
	if err := service.SignOut(ctx, service.SignOutDeps{Slots: pc.Slots, Names: g.names}); err != nil {
		g.logger.WarnContext(ctx, "failed to clear token cookies", "error", err)
	}
}

func (g *Guard) redirected(ctx context.Context, pc *PageContext, outcome string, reason error) {
	g.count(outcome)
	path := ""
	if pc.Request != nil {
		path = pc.Request.URL.Path
	}
	g.logger.InfoContext(ctx, "guard redirect", "path", path, "outcome", outcome, "reason", reason.Error())
}

func (g *Guard) count(outcome string) {
	if g.metrics == nil {
		return
	}
	g.metrics.Count(MetricGuard, 1, map[string]string{"outcome": outcome})
}
