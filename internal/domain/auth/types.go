package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Well-known permission and role names used by the portal's own routes.
const (
	PermissionMetricsView = "metrics.view"
	RoleAdministrator     = "administrator"
	RoleEditor            = "editor"
)

// SignOutMessage is the only sync channel payload that triggers a reaction.
const SignOutMessage = "signOut"

// ClaimsHolder is the identity-shaped input accepted by Evaluate.
// Both a live session Identity and freshly decoded token Claims satisfy it.
type ClaimsHolder interface {
	GrantedPermissions() []string
	GrantedRoles() []string
}

// Identity represents the authenticated principal held by a session.
// It is replaced wholesale on sign-in and cleared on sign-out.
type Identity struct {
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

// NewIdentity builds an Identity that does not alias the caller's slices.
func NewIdentity(email string, permissions, roles []string) Identity {
	return Identity{
		Email:       email,
		Permissions: cloneStrings(permissions),
		Roles:       cloneStrings(roles),
	}
}

func (i Identity) GrantedPermissions() []string { return i.Permissions }
func (i Identity) GrantedRoles() []string       { return i.Roles }

// Claims is the payload decoded from an access token without verification.
// Email is optional; the backend may omit it from tokens.
type Claims struct {
	Subject     string
	Email       string
	Permissions []string
	Roles       []string
	ExpiresAt   time.Time
}

func (c Claims) GrantedPermissions() []string { return c.Permissions }
func (c Claims) GrantedRoles() []string       { return c.Roles }

// Identity converts decoded claims into an Identity value.
func (c Claims) Identity() Identity {
	return NewIdentity(c.Email, c.Permissions, c.Roles)
}

// TokenPair is the opaque access/refresh token pair issued by the backend.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Credentials are forwarded to the backend as-is on sign-in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionGrant is the backend's answer to a successful sign-in.
type SessionGrant struct {
	Tokens      TokenPair
	Permissions []string
	Roles       []string
}

// Requirement declares what a caller must hold to be authorized.
// A nil slice means the corresponding check is not required.
type Requirement struct {
	Permissions []string `json:"permissions,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// RequirePermissions is shorthand for a permissions-only requirement.
func RequirePermissions(perms ...string) *Requirement {
	return &Requirement{Permissions: perms}
}

// RequireRoles is shorthand for a roles-only requirement.
func RequireRoles(roles ...string) *Requirement {
	return &Requirement{Roles: roles}
}

// State is the browser-side session state.
type State struct {
	identity      Identity
	authenticated bool
}

// Unauthenticated returns the zero state.
func Unauthenticated() State { return State{} }

// Authenticated returns a state holding the given identity.
func Authenticated(id Identity) State {
	return State{identity: id, authenticated: true}
}

// IsAuthenticated reports whether the state carries an identity.
func (s State) IsAuthenticated() bool { return s.authenticated }

// Identity returns the held identity and whether one is present.
func (s State) Identity() (Identity, bool) {
	if !s.authenticated {
		return Identity{}, false
	}
	return s.identity, true
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
