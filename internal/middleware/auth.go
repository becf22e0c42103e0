// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"
	"strings"

	"github.com/adventurers-guild/questboard/internal/auth"
)

// Auth returns middleware that validates Bearer tokens and stores the
// authenticated user ID in the request context. When required is false,
// requests without an Authorization header pass through unauthenticated;
// a present but invalid token is always rejected.
func Auth(jwtService *auth.JWTService, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				if required {
					unauthorized(w, r, "missing authorization header")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, r, "authorization header must be a Bearer token")
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				unauthorized(w, r, "invalid or expired token")
				return
			}
			if claims.Type != auth.TokenTypeAccess {
				unauthorized(w, r, "token is not an access token")
				return
			}

			ctx := SetUserID(r.Context(), claims.Subject)
			UpdateResponseContext(w, ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	ctx := SetErrorCode(r.Context(), "auth_failed")
	UpdateResponseContext(w, ctx)
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, message, http.StatusUnauthorized)
}
