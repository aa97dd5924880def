package backend

// Package backend is the HTTP adapter for the identity backend
// (POST /sessions, GET /me).

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
	"github.com/thalysonbl/authgate/internal/ports"
	"golang.org/x/oauth2"
)

var _ ports.IdentityBackend = (*Client)(nil)

// Config holds configuration for the backend client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // Optional; its Transport becomes the base transport.
}

// Client talks to the identity backend. The attached bearer token is shared
// by all calls made through the same Client.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	bearer  *bearerSource
}

// NewClient creates a backend client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend base URL: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("backend base URL must be absolute: %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var base http.RoundTripper
	if cfg.HTTPClient != nil {
		base = cfg.HTTPClient.Transport
	}

	src := &bearerSource{}
	return &Client{
		baseURL: u,
		bearer:  src,
		http: &http.Client{
			Timeout:   timeout,
			Transport: &oauth2.Transport{Source: src, Base: base},
		},
	}, nil
}

// WithBearer returns a Client sharing the transport but carrying its own bearer.
// Server-side request handlers use it so concurrent requests never share a token.
func (c *Client) WithBearer(token string) *Client {
	src := &bearerSource{token: token}
	inner := c.http.Transport.(*oauth2.Transport) //nolint:forcetypeassert // constructed in NewClient
	return &Client{
		baseURL: c.baseURL,
		bearer:  src,
		http: &http.Client{
			Timeout:   c.http.Timeout,
			Transport: &oauth2.Transport{Source: src, Base: inner.Base},
		},
	}
}

func (c *Client) SetBearer(token string) { c.bearer.set(token) }

// sessionRequest is the POST /sessions body.
type sessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is the POST /sessions answer.
type sessionResponse struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	Permissions  []string `json:"permissions"`
	Roles        []string `json:"roles"`
}

// meResponse is the GET /me answer.
type meResponse struct {
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

// errorResponse is the backend's error envelope.
type errorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateSession posts credentials to /sessions.
func (c *Client) CreateSession(ctx context.Context, creds domainauth.Credentials) (domainauth.SessionGrant, error) {
	body, err := json.Marshal(sessionRequest{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return domainauth.SessionGrant{}, fmt.Errorf("marshal credentials: %w", err)
	}

	// Sign-in must never carry a previous user's token.
	req, err := c.newRequest(ctx, http.MethodPost, "sessions", bytes.NewReader(body))
	if err != nil {
		return domainauth.SessionGrant{}, err
	}
	resp, err := c.plain().Do(req)
	if err != nil {
		return domainauth.SessionGrant{}, fmt.Errorf("post sessions: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
	case isCredentialRejection(resp.StatusCode):
		e := readError(resp.Body)
		return domainauth.SessionGrant{}, fmt.Errorf("%w: %s", domainauth.ErrCredentialsRejected, describe(resp.StatusCode, e))
	default:
		e := readError(resp.Body)
		return domainauth.SessionGrant{}, fmt.Errorf("post sessions: %s", describe(resp.StatusCode, e))
	}

	var out sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domainauth.SessionGrant{}, fmt.Errorf("decode sessions response: %w", err)
	}
	return domainauth.SessionGrant{
		Tokens:      domainauth.TokenPair{AccessToken: out.Token, RefreshToken: out.RefreshToken},
		Permissions: out.Permissions,
		Roles:       out.Roles,
	}, nil
}

// Me fetches the current identity using the attached bearer token.
func (c *Client) Me(ctx context.Context) (domainauth.Identity, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "me", nil)
	if err != nil {
		return domainauth.Identity{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, errNoBearer) {
			return domainauth.Identity{}, &domainauth.TokenError{Code: "token.missing"}
		}
		return domainauth.Identity{}, fmt.Errorf("get me: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		e := readError(resp.Body)
		return domainauth.Identity{}, &domainauth.TokenError{Code: e.Code, Reason: e.Message}
	}
	if resp.StatusCode != http.StatusOK {
		e := readError(resp.Body)
		return domainauth.Identity{}, fmt.Errorf("get me: %s", describe(resp.StatusCode, e))
	}

	var out meResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domainauth.Identity{}, fmt.Errorf("decode me response: %w", err)
	}
	return domainauth.NewIdentity(out.Email, out.Permissions, out.Roles), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// plain returns an HTTP client that bypasses bearer attachment.
func (c *Client) plain() *http.Client {
	inner := c.http.Transport.(*oauth2.Transport) //nolint:forcetypeassert // constructed in NewClient
	base := inner.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{Timeout: c.http.Timeout, Transport: base}
}

func isCredentialRejection(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return true
	default:
		return false
	}
}

func readError(r io.Reader) errorResponse {
	var e errorResponse
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return e
	}
	if json.Unmarshal(data, &e) != nil {
		e.Message = strings.TrimSpace(string(data))
	}
	return e
}

func describe(status int, e errorResponse) string {
	msg := fmt.Sprintf("status %d", status)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

var errNoBearer = errors.New("no bearer token attached")

// bearerSource is an oauth2.TokenSource whose token can be swapped at runtime.
type bearerSource struct {
	mu    sync.RWMutex
	token string
}

func (s *bearerSource) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *bearerSource) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return nil, errNoBearer
	}
	return &oauth2.Token{AccessToken: s.token, TokenType: "Bearer"}, nil
}
