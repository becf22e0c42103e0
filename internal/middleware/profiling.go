// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
)

// Profiling mounts the pprof handlers under /debug/pprof for diagnosing the
// scoring hot path (CPU profiles of match computation, heap growth of the
// in-memory repositories). The handlers expose memory contents and runtime
// internals, so the production guard is unconditional: in production the
// middleware is a no-op regardless of how it was enabled.
func Profiling(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if env == "production" || env == "prod" {
			slog.Error("refusing to enable pprof endpoints in production", "env", env)
			return next
		}

		slog.Warn("pprof endpoints enabled at /debug/pprof", "env", env)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/debug/pprof") {
				next.ServeHTTP(w, r)
				return
			}

			switch r.URL.Path {
			case "/debug/pprof/cmdline":
				pprof.Cmdline(w, r)
			case "/debug/pprof/profile":
				pprof.Profile(w, r)
			case "/debug/pprof/symbol":
				pprof.Symbol(w, r)
			case "/debug/pprof/trace":
				pprof.Trace(w, r)
			default:
				// Index also serves the named profiles (heap, goroutine, ...).
				pprof.Index(w, r)
			}
		})
	}
}
