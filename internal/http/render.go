package httpx

import (
	"log/slog"
	"net/http"

	"github.com/thalysonbl/authgate/internal/adapters/cookies"
)

// Render writes a PageResult: a 302 for redirects, JSON props otherwise.
func Render(w http.ResponseWriter, r *http.Request, res PageResult) {
	if res.Redirect != "" {
		http.Redirect(w, r, res.Redirect, http.StatusFound)
		return
	}
	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	if res.Props == nil {
		w.WriteHeader(status)
		return
	}
	WriteJSON(w, status, res.Props)
}

// PageHandler adapts a PageFunc to an http.Handler with request-scoped token cookies.
func PageHandler(fn PageFunc, opts cookies.Options, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pc := &PageContext{Request: r, Slots: cookies.ForRequest(w, r, opts)}
		res, err := fn(r.Context(), pc)
		if err != nil {
			logger.ErrorContext(r.Context(), "page failed", "path", r.URL.Path, "error", err)
			WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "page_failed", Err: err})
			return
		}
		Render(w, r, res)
	})
}
