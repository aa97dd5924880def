package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
)

// IdentityBackend is the remote service that issues tokens and reports the current identity.
type IdentityBackend interface {
	// CreateSession exchanges credentials for a token pair (POST /sessions).
	CreateSession(ctx context.Context, creds domainauth.Credentials) (domainauth.SessionGrant, error)

	// Me returns the identity for the attached bearer token (GET /me).
	Me(ctx context.Context) (domainauth.Identity, error)

	// SetBearer attaches token as the default credential for subsequent calls.
	// An empty token detaches it.
	SetBearer(token string)
}

// TokenSlots persists the access/refresh token pair under fixed names.
type TokenSlots interface {
	Get(name string) (string, bool)
	Set(name, value string) error
	Destroy(name string) error
}

// ClaimsDecoder decodes an access token's payload without verifying it.
type ClaimsDecoder interface {
	Decode(raw string) (domainauth.Claims, error)
}

// Navigator moves the user to another in-app destination.
type Navigator interface {
	Navigate(path string)
}

// SyncChannel is one handle on a named broadcast channel.
// Posts are delivered to every other open handle with the same name, never to the sender.
type SyncChannel interface {
	Post(ctx context.Context, data string) error
	Messages() <-chan string
	Close() error
}

// SyncBroker opens handles on named broadcast channels.
type SyncBroker interface {
	Open(ctx context.Context, name string) (SyncChannel, error)
}
