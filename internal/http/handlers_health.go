package httpx

import (
	"io"
	"net/http"
)

const (
	healthWithSync    = `{"status":"ok","sync":"enabled"}`
	healthWithoutSync = `{"status":"ok","sync":"disabled"}`
)

// healthHandler answers readiness/liveness checks. The body tells operators
// whether sign-outs are broadcast to other tabs.
func healthHandler(syncEnabled bool) http.HandlerFunc {
	body := healthWithoutSync
	if syncEnabled {
		body = healthWithSync
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		// Nothing more to do if the client connection is gone.
		_, _ = io.WriteString(w, body)
	}
}
