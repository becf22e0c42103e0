// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"
	"strings"
)

// The quest board API is read-only JSON over GET, so the preflight surface
// is fixed: browsers only ever need GET plus the headers the scoring
// endpoints use.
const (
	corsAllowMethods = "GET, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type, X-Request-ID"
	corsMaxAge       = "300"
)

// CORS returns middleware enforcing an explicit origin allowlist for browser
// clients. Wildcards are not supported; an empty allowlist disables the
// middleware entirely, which is the default for server-to-server deployments.
//
// Requests without an Origin header are treated as same-origin and passed
// through. Requests from origins outside the allowlist are rejected with 403
// before they reach rate limiting or auth.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(origins) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Responses vary by origin, so caches must not mix them.
			w.Header().Add("Vary", "Origin")

			if _, ok := origins[origin]; !ok {
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
				w.Header().Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
