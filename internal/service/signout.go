package service

import (
	"context"
	"errors"
	"fmt"

	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
	"github.com/thalysonbl/authgate/internal/ports"
)

// Default slot names and destinations.
const (
	DefaultTokenCookie   = "nextauth.token"
	DefaultRefreshCookie = "nextauth.refreshToken"
	DefaultPublicPath    = "/"
	DefaultLandingPath   = "/dashboard"
	DefaultChannelName   = "auth"
)

// TokenNames are the slot names the token pair is stored under.
type TokenNames struct {
	Access  string
	Refresh string
}

// DefaultTokenNames returns the standard cookie names.
func DefaultTokenNames() TokenNames {
	return TokenNames{Access: DefaultTokenCookie, Refresh: DefaultRefreshCookie}
}

func (n TokenNames) withDefaults() TokenNames {
	if n.Access == "" {
		n.Access = DefaultTokenCookie
	}
	if n.Refresh == "" {
		n.Refresh = DefaultRefreshCookie
	}
	return n
}

// SignOutDeps groups what a sign-out touches. Channel and Navigator are optional.
type SignOutDeps struct {
	Slots      ports.TokenSlots
	Channel    ports.SyncChannel
	Navigator  ports.Navigator
	Names      TokenNames
	PublicPath string
}

// SignOut destroys both token slots, navigates to the public path and, as the
// last step, tells other tabs to sign out. It never needs a Session, so it can
// run from any request handler. Every step runs even if an earlier one fails.
func SignOut(ctx context.Context, deps SignOutDeps) error {
	names := deps.Names.withDefaults()
	public := deps.PublicPath
	if public == "" {
		public = DefaultPublicPath
	}

	var errs []error
	if err := destroyTokens(deps.Slots, names); err != nil {
		errs = append(errs, err)
	}

	if deps.Navigator != nil {
		deps.Navigator.Navigate(public)
	}

	if deps.Channel != nil {
		if err := deps.Channel.Post(ctx, domainauth.SignOutMessage); err != nil {
			errs = append(errs, fmt.Errorf("broadcast sign-out: %w", err))
		}
	}

	return errors.Join(errs...)
}

func destroyTokens(slots ports.TokenSlots, names TokenNames) error {
	if slots == nil {
		return nil
	}
	var errs []error
	if err := slots.Destroy(names.Access); err != nil {
		errs = append(errs, fmt.Errorf("destroy %s: %w", names.Access, err))
	}
	if err := slots.Destroy(names.Refresh); err != nil {
		errs = append(errs, fmt.Errorf("destroy %s: %w", names.Refresh, err))
	}
	return errors.Join(errs...)
}
