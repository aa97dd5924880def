package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thalysonbl/authgate/internal/adapters/broadcast"
	"github.com/thalysonbl/authgate/internal/adapters/devauth"
	"github.com/thalysonbl/authgate/internal/adapters/jwtclaims"
	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
	"github.com/thalysonbl/authgate/internal/ports"
	"github.com/thalysonbl/authgate/internal/service"
)

const (
	testDevice   = "6f1c2d1e-8a1b-4c53-9f1e-2b7d0c9a4e11"
	testEmail    = "dev@example.com"
	testPassword = "dev-password"
)

type portal struct {
	handler http.Handler
	hub     *broadcast.Hub
}

func newPortal(t *testing.T, permissions []string) *portal {
	t.Helper()
	dev, err := devauth.NewBackend(devauth.Config{
		Email:       testEmail,
		Password:    testPassword,
		Permissions: permissions,
		Roles:       []string{domainauth.RoleEditor},
		Secret:      "router-test",
	})
	require.NoError(t, err)

	hub := broadcast.NewHub()
	return &portal{
		hub: hub,
		handler: NewRouter(RouterServices{
			NewBackend: func() ports.IdentityBackend { return dev.WithBearer("") },
			Decoder:    jwtclaims.Decoder{},
			Broker:     hub,
			Session:    service.DefaultSessionConfig(),
		}),
	}
}

func (p *portal) do(req *http.Request, jar ...*http.Cookie) *httptest.ResponseRecorder {
	req.AddCookie(&http.Cookie{Name: DeviceCookie, Value: testDevice})
	for _, c := range jar {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	p.handler.ServeHTTP(rec, req)
	return rec
}

func (p *portal) signIn(t *testing.T) []*http.Cookie {
	t.Helper()
	body := `{"email":"` + testEmail + `","password":"` + testPassword + `"}`
	req := httptest.NewRequest(http.MethodPost, "/sign-in", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := p.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "/dashboard", out["redirect_to"])

	var jar []*http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == service.DefaultTokenCookie || c.Name == service.DefaultRefreshCookie {
			jar = append(jar, c)
		}
	}
	require.Len(t, jar, 2)
	return jar
}

func expiredCookies(rec *httptest.ResponseRecorder) map[string]bool {
	out := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			out[c.Name] = true
		}
	}
	return out
}

func TestRouter_SignInThenProtectedPages(t *testing.T) {
	p := newPortal(t, []string{"users.list", domainauth.PermissionMetricsView})
	jar := p.signIn(t)

	rec := p.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil), jar...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"page":"dashboard","email":"dev@example.com",
		"permissions":["users.list","metrics.view"],"roles":["editor"]}`, rec.Body.String())

	rec = p.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), jar...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"page":"metrics"`)
}

func TestRouter_MissingTokenRedirectsHome(t *testing.T) {
	p := newPortal(t, nil)

	for _, path := range []string{"/dashboard", "/metrics"} {
		rec := p.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get("Location"), path)
	}
}

func TestRouter_ForbiddenRedirectsToDashboard(t *testing.T) {
	p := newPortal(t, []string{"users.list"})
	jar := p.signIn(t)

	rec := p.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), jar...)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	assert.Empty(t, expiredCookies(rec))
}

func TestRouter_InvalidTokenRecovery(t *testing.T) {
	p := newPortal(t, nil)
	jar := []*http.Cookie{
		{Name: service.DefaultTokenCookie, Value: "garbage"},
		{Name: service.DefaultRefreshCookie, Value: "refresh"},
	}

	// Dashboard has no requirement: the backend rejects the token.
	rec := p.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil), jar...)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	expired := expiredCookies(rec)
	assert.True(t, expired[service.DefaultTokenCookie])
	assert.True(t, expired[service.DefaultRefreshCookie])

	// Metrics has a requirement: the token fails to decode.
	rec = p.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), jar...)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.True(t, expiredCookies(rec)[service.DefaultTokenCookie])
}

func TestRouter_SignInRejected(t *testing.T) {
	p := newPortal(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/sign-in",
		strings.NewReader("email=dev%40example.com&password=wrong"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := p.do(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), errCodeInvalidCredentials)
	for _, c := range rec.Result().Cookies() {
		assert.NotEqual(t, service.DefaultTokenCookie, c.Name)
	}
}

func TestRouter_SignInValidation(t *testing.T) {
	p := newPortal(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/sign-in", strings.NewReader(`{"password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := p.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), errCodeMissingEmail)

	req = httptest.NewRequest(http.MethodPost, "/sign-in", strings.NewReader(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	rec = p.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), errCodeInvalidJSON)
}

func TestRouter_FormSignInRedirects(t *testing.T) {
	p := newPortal(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/sign-in",
		strings.NewReader("email=dev%40example.com&password=dev-password"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := p.do(req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestRouter_SignOutBroadcastsToDevice(t *testing.T) {
	p := newPortal(t, nil)
	jar := p.signIn(t)
	ctx := context.Background()

	otherTab, err := p.hub.Open(ctx, service.DefaultChannelName+":"+testDevice)
	require.NoError(t, err)
	defer otherTab.Close()
	otherBrowser, err := p.hub.Open(ctx, service.DefaultChannelName+":some-other-device")
	require.NoError(t, err)
	defer otherBrowser.Close()

	rec := p.do(httptest.NewRequest(http.MethodPost, "/sign-out", nil), jar...)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	expired := expiredCookies(rec)
	assert.True(t, expired[service.DefaultTokenCookie])
	assert.True(t, expired[service.DefaultRefreshCookie])

	select {
	case msg := <-otherTab.Messages():
		assert.Equal(t, domainauth.SignOutMessage, msg)
	case <-time.After(time.Second):
		t.Fatal("other tab was not notified")
	}
	assert.Empty(t, otherBrowser.Messages())
}

func TestRouter_SessionStatus(t *testing.T) {
	p := newPortal(t, []string{domainauth.PermissionMetricsView})
	jar := p.signIn(t)

	rec := p.do(httptest.NewRequest(http.MethodGet, "/session?permission=metrics.view", nil), jar...)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, testEmail, body["email"])
	assert.Equal(t, true, body["can"])

	rec = p.do(httptest.NewRequest(http.MethodGet, "/session?role=administrator", nil), jar...)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["can"])

	rec = p.do(httptest.NewRequest(http.MethodGet, "/session", nil))
	body = map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["authenticated"])
	assert.NotContains(t, body, "can")
}

func TestRouter_SessionStatusInvalidTokenSignsOut(t *testing.T) {
	p := newPortal(t, nil)
	ctx := context.Background()
	otherTab, err := p.hub.Open(ctx, service.DefaultChannelName+":"+testDevice)
	require.NoError(t, err)
	defer otherTab.Close()

	rec := p.do(httptest.NewRequest(http.MethodGet, "/session", nil),
		&http.Cookie{Name: service.DefaultTokenCookie, Value: "garbage"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	assert.True(t, expiredCookies(rec)[service.DefaultTokenCookie])
	select {
	case msg := <-otherTab.Messages():
		assert.Equal(t, domainauth.SignOutMessage, msg)
	case <-time.After(time.Second):
		t.Fatal("failed restore did not broadcast sign-out")
	}
}

func TestRouter_Home(t *testing.T) {
	p := newPortal(t, nil)

	rec := p.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)

	rec = p.do(httptest.NewRequest(http.MethodGet, "/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_SignInRateLimited(t *testing.T) {
	dev, err := devauth.NewBackend(devauth.Config{Email: testEmail, Password: testPassword})
	require.NoError(t, err)
	handler := NewRouter(RouterServices{
		NewBackend:    func() ports.IdentityBackend { return dev.WithBearer("") },
		Decoder:       jwtclaims.Decoder{},
		SignInLimiter: NewRateLimiter(RateLimitConfig{Rate: 0.001, Burst: 1}),
	})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/sign-in", strings.NewReader(`{"email":"x@example.com","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestRouter_EventsStreamsSignOut(t *testing.T) {
	p := newPortal(t, nil)
	srv := httptest.NewServer(p.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: DeviceCookie, Value: testDevice})

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	channel := service.DefaultChannelName + ":" + testDevice
	require.Eventually(t, func() bool { return p.hub.Subscribers(channel) == 1 }, time.Second, 5*time.Millisecond)

	poster, err := p.hub.Open(ctx, channel)
	require.NoError(t, err)
	defer poster.Close()
	require.NoError(t, poster.Post(ctx, domainauth.SignOutMessage))

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 2 {
		line, rerr := reader.ReadString('\n')
		require.NoError(t, rerr)
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, []string{"event: sync", "data: signOut"}, lines)
}

func TestRouter_EventsWithoutBroker(t *testing.T) {
	handler := NewRouter(RouterServices{
		NewBackend: func() ports.IdentityBackend { return nil },
		Decoder:    jwtclaims.Decoder{},
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
