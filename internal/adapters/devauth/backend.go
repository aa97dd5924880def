package devauth

// Package devauth provides an in-process identity backend for local development.
// It accepts one configured user and issues HS256 access tokens carrying the
// configured permissions and roles.

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/thalysonbl/authgate/internal/adapters/jwtclaims"
	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
	"github.com/thalysonbl/authgate/internal/ports"
)

const issuerName = "authgate-devauth"

// Config controls the dev backend.
// Email and Password are required; Permissions and Roles may be empty.
type Config struct {
	Email       string
	Password    string
	Permissions []string
	Roles       []string
	Secret      string        // random per process when empty
	TokenTTL    time.Duration // default 8h when zero
}

type issuer struct {
	email       string
	password    string
	permissions []string
	roles       []string
	secret      []byte
	ttl         time.Duration
	now         func() time.Time
}

// Backend implements ports.IdentityBackend without a network hop.
type Backend struct {
	issuer *issuer

	mu     sync.RWMutex
	bearer string
}

var _ ports.IdentityBackend = (*Backend)(nil)

// NewBackend constructs a dev backend from Config.
func NewBackend(cfg Config) (*Backend, error) {
	if strings.TrimSpace(cfg.Email) == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.Password == "" {
		return nil, errors.New("dev auth: Password is required")
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	secret := cfg.Secret
	if secret == "" {
		s, err := randomString(48)
		if err != nil {
			return nil, fmt.Errorf("generate signing secret: %w", err)
		}
		secret = s
	}
	return &Backend{issuer: &issuer{
		email:       cfg.Email,
		password:    cfg.Password,
		permissions: append([]string(nil), cfg.Permissions...),
		roles:       append([]string(nil), cfg.Roles...),
		secret:      []byte(secret),
		ttl:         ttl,
		now:         time.Now,
	}}, nil
}

// WithBearer returns a backend sharing this one's issuer with token attached.
func (b *Backend) WithBearer(token string) *Backend {
	return &Backend{issuer: b.issuer, bearer: token}
}

func (b *Backend) SetBearer(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bearer = token
}

// CreateSession checks the configured credentials and issues a token pair.
func (b *Backend) CreateSession(_ context.Context, creds domainauth.Credentials) (domainauth.SessionGrant, error) {
	iss := b.issuer
	emailOK := strings.EqualFold(strings.TrimSpace(creds.Email), iss.email)
	passOK := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(iss.password)) == 1
	if !emailOK || !passOK {
		return domainauth.SessionGrant{}, fmt.Errorf("dev auth: %w", domainauth.ErrCredentialsRejected)
	}

	access, err := iss.sign()
	if err != nil {
		return domainauth.SessionGrant{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := randomString(43)
	if err != nil {
		return domainauth.SessionGrant{}, fmt.Errorf("generate refresh token: %w", err)
	}

	return domainauth.SessionGrant{
		Tokens:      domainauth.TokenPair{AccessToken: access, RefreshToken: refresh},
		Permissions: append([]string(nil), iss.permissions...),
		Roles:       append([]string(nil), iss.roles...),
	}, nil
}

// Me verifies the attached bearer and returns the identity it carries.
func (b *Backend) Me(_ context.Context) (domainauth.Identity, error) {
	b.mu.RLock()
	bearer := b.bearer
	b.mu.RUnlock()
	if bearer == "" {
		return domainauth.Identity{}, &domainauth.TokenError{Code: "token.missing", Reason: "no bearer token"}
	}

	claims, err := b.issuer.verify(bearer)
	if err != nil {
		code := "token.invalid"
		if errors.Is(err, jwt.ErrTokenExpired) {
			code = "token.expired"
		}
		return domainauth.Identity{}, &domainauth.TokenError{Code: code, Reason: err.Error()}
	}
	return domainauth.NewIdentity(claims.Email, claims.Permissions, claims.Roles), nil
}

func (iss *issuer) sign() (string, error) {
	now := iss.now()
	jti, err := randomString(16)
	if err != nil {
		return "", err
	}
	claims := jwtclaims.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   iss.email,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(iss.ttl)),
		},
		Email:       iss.email,
		Permissions: iss.permissions,
		Roles:       iss.roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(iss.secret)
}

func (iss *issuer) verify(raw string) (*jwtclaims.AccessClaims, error) {
	var claims jwtclaims.AccessClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return iss.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(iss.now),
	)
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		return "", errors.New("short random read")
	}
	return s[:n], nil
}
