package jwtclaims

// Package jwtclaims decodes access-token payloads without verifying signatures.
// Verification is the identity backend's job; the portal only needs the
// permission and role claims to decide where to send the user.

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
)

// AccessClaims is the JWT payload shape issued by the identity backend.
type AccessClaims struct {
	jwt.RegisteredClaims

	Email       string   `json:"email,omitempty"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

// Decoder implements ports.ClaimsDecoder.
type Decoder struct{}

// Decode parses raw as a JWT and returns its claims. No secret is used.
// Structural failures are reported as domainauth.ErrMalformedToken.
func (Decoder) Decode(raw string) (domainauth.Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domainauth.Claims{}, fmt.Errorf("%w: empty token", domainauth.ErrMalformedToken)
	}

	var claims AccessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return domainauth.Claims{}, fmt.Errorf("%w: %w", domainauth.ErrMalformedToken, err)
	}

	out := domainauth.Claims{
		Subject:     claims.Subject,
		Email:       claims.Email,
		Permissions: claims.Permissions,
		Roles:       claims.Roles,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
