// Package mocks provides gomock mocks for the auth ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	backend := mocks.NewMockIdentityBackend(ctrl)
//	backend.EXPECT().CreateSession(gomock.Any(), creds).Return(grant, nil)
//
// Hand-written doubles live in internal/mocks/auth.
package mocks

// Generate mock for IdentityBackend interface from internal/ports package.
// This creates MockIdentityBackend with methods: CreateSession, Me, SetBearer
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_backend_mock.go github.com/thalysonbl/authgate/internal/ports IdentityBackend
