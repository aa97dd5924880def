package httpx

import (
	"context"
	"net/http"

	"github.com/thalysonbl/authgate/internal/ports"
	"github.com/thalysonbl/authgate/internal/service"
)

// PageHandlers holds the protected pages.
type PageHandlers struct {
	NewBackend BackendFactory
	Decoder    ports.ClaimsDecoder
	Names      service.TokenNames
}

func (h *PageHandlers) accessName() string {
	if h.Names.Access == "" {
		return service.DefaultTokenCookie
	}
	return h.Names.Access
}

// Dashboard asks the backend who the token belongs to. A rejected token
// surfaces as domainauth.ErrTokenInvalid for the guard to recover from.
func (h *PageHandlers) Dashboard(ctx context.Context, pc *PageContext) (PageResult, error) {
	token, _ := pc.Slots.Get(h.accessName())
	backend := h.NewBackend()
	backend.SetBearer(token)

	id, err := backend.Me(ctx)
	if err != nil {
		return PageResult{}, err
	}
	return PageResult{Props: map[string]any{
		"page":        "dashboard",
		"email":       id.Email,
		"permissions": id.Permissions,
		"roles":       id.Roles,
	}}, nil
}

// Metrics shows the claims that granted access.
func (h *PageHandlers) Metrics(_ context.Context, pc *PageContext) (PageResult, error) {
	token, _ := pc.Slots.Get(h.accessName())
	claims, err := h.Decoder.Decode(token)
	if err != nil {
		return PageResult{}, err
	}
	return PageResult{Status: http.StatusOK, Props: map[string]any{
		"page":        "metrics",
		"subject":     claims.Subject,
		"email":       claims.Email,
		"permissions": claims.Permissions,
	}}, nil
}
