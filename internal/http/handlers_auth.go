package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/thalysonbl/authgate/internal/adapters/cookies"
	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
	"github.com/thalysonbl/authgate/internal/ports"
	"github.com/thalysonbl/authgate/internal/service"
)

// BackendFactory returns an identity backend with no bearer attached.
// Each request gets its own so bearers never leak between users.
type BackendFactory func() ports.IdentityBackend

// AuthHandlers serves sign-in, sign-out and session status.
type AuthHandlers struct {
	NewBackend BackendFactory
	Broker     ports.SyncBroker
	Session    service.SessionConfig
	Cookies    cookies.Options
	Metrics    ports.MetricsSink
	Logger     *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// redirectNavigator remembers the last destination so the handler can answer with it.
type redirectNavigator struct {
	path string
}

func (n *redirectNavigator) Navigate(path string) { n.path = path }

// deviceChannel scopes the configured channel name to the requesting browser.
func deviceChannel(ctx context.Context, base string) string {
	if base == "" {
		base = service.DefaultChannelName
	}
	if id, ok := GetDeviceFromContext(ctx); ok {
		return base + ":" + id
	}
	return base
}

func (h *AuthHandlers) newSession(w http.ResponseWriter, r *http.Request, nav ports.Navigator) *service.Session {
	cfg := h.Session
	cfg.ChannelName = deviceChannel(r.Context(), cfg.ChannelName)
	p := service.SessionPorts{
		Backend:   h.NewBackend(),
		Slots:     cookies.ForRequest(w, r, h.Cookies),
		Navigator: nav,
		Metrics:   h.Metrics,
	}
	if h.Broker != nil {
		p.Broker = h.Broker
	}
	return service.NewSession(service.SessionOptions{Ports: p, Config: cfg, Logger: h.logger()})
}

// Home is the public entry point.
// GET /.
func (h *AuthHandlers) Home(w http.ResponseWriter, r *http.Request) {
	names := h.Session.Names
	if names.Access == "" {
		names = service.DefaultTokenNames()
	}
	_, authenticated := cookies.ForRequest(w, r, h.Cookies).Get(names.Access)
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": authenticated,
		"sign_in":       "POST /sign-in",
	})
}

// SignIn exchanges credentials for token cookies.
// POST /sign-in with a JSON body or form fields email and password.
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	creds, ok := readCredentials(w, r)
	if !ok {
		return
	}

	nav := &redirectNavigator{}
	sess := h.newSession(w, r, nav)
	if err := sess.SignIn(r.Context(), creds); err != nil {
		if errors.Is(err, domainauth.ErrCredentialsRejected) {
			WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: errCodeInvalidCredentials, Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: errCodeSignInFailed, Err: err})
		return
	}

	respondNavigation(w, r, nav.path, "signed_in")
}

// SignOut clears the token cookies and tells the browser's other tabs.
// POST /sign-out.
func (h *AuthHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nav := &redirectNavigator{}
	deps := service.SignOutDeps{
		Slots:      cookies.ForRequest(w, r, h.Cookies),
		Navigator:  nav,
		Names:      h.Session.Names,
		PublicPath: h.Session.PublicPath,
	}

	if h.Broker != nil {
		ch, err := h.Broker.Open(ctx, deviceChannel(ctx, h.Session.ChannelName))
		if err != nil {
			h.logger().WarnContext(ctx, "sign-out without broadcast", "error", err)
		} else {
			defer func() {
				if cerr := ch.Close(); cerr != nil {
					h.logger().WarnContext(ctx, "close sync channel", "error", cerr)
				}
			}()
			deps.Channel = ch
		}
	}

	if err := service.SignOut(ctx, deps); err != nil {
		h.logger().WarnContext(ctx, "sign-out incomplete", "error", err)
	}
	if h.Metrics != nil {
		h.Metrics.Count(service.MetricSignOut, 1, map[string]string{"source": "local"})
	}

	respondNavigation(w, r, nav.path, "signed_out")
}

// Status restores the session from the cookies and reports it.
// GET /session?permission=a&permission=b&role=c.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.newSession(w, r, &redirectNavigator{})
	if err := sess.Mount(ctx); err != nil {
		h.logger().WarnContext(ctx, "session not synced", "error", err)
	}
	if err := sess.Restore(ctx); err != nil {
		h.logger().InfoContext(ctx, "session restore failed", "error", err)
	}
	// The listener may write cookies; stop it before the response is written.
	if err := sess.Close(); err != nil {
		h.logger().WarnContext(ctx, "close session", "error", err)
	}

	body := map[string]any{"authenticated": sess.IsAuthenticated()}
	if id, ok := sess.Identity(); ok {
		body["email"] = id.Email
		body["permissions"] = id.Permissions
		body["roles"] = id.Roles
	}
	if req, ok := requirementFromQuery(r); ok {
		body["can"] = sess.Can(req)
	}
	WriteJSON(w, http.StatusOK, body)
}

func requirementFromQuery(r *http.Request) (domainauth.Requirement, bool) {
	q := r.URL.Query()
	perms, roles := q["permission"], q["role"]
	if len(perms) == 0 && len(roles) == 0 {
		return domainauth.Requirement{}, false
	}
	return domainauth.Requirement{Permissions: perms, Roles: roles}, true
}

func readCredentials(w http.ResponseWriter, r *http.Request) (domainauth.Credentials, bool) {
	var creds domainauth.Credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if !DecodeJSON(w, r, &creds) {
			return creds, false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: errCodeInvalidForm, Err: err})
			return creds, false
		}
		creds.Email = r.PostFormValue("email")
		creds.Password = r.PostFormValue("password")
	}

	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: errCodeMissingEmail,
			Err:     errors.New("email is required"),
		})
		return creds, false
	}
	return creds, true
}

// respondNavigation redirects browsers and answers API clients with JSON.
func respondNavigation(w http.ResponseWriter, r *http.Request, path, status string) {
	if path == "" {
		path = service.DefaultPublicPath
	}
	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": status, "redirect_to": path})
		return
	}
	http.Redirect(w, r, path, http.StatusFound)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}
