//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are run via `go run pkg@version` or installed globally and are
// not tracked in go.mod since they are development tools, not runtime dependencies.
package tools

// Development tools:
//
// mockgen - regenerates internal/mocks from the ports
//   Run: go generate ./internal/mocks/...
//   Version: go.uber.org/mock/mockgen@v0.6.0 (matches go.mod)
//
// Air - Live reload for the portal during development
//   Install: go install github.com/air-verse/air@v1.63.0
//   Run: AUTH_MODE=mock DEV=true air --build.cmd "go build -o ./tmp/authgate ./cmd/authgate" --build.bin ./tmp/authgate
