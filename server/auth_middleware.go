package server

import (
	"context"
	"net/http"
	"strings"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyUserID stores the authenticated user ID
const ContextKeyUserID ContextKey = "user_id"

// RequireAuth validates the Bearer access token and injects the user id into
// the request context. Prepends the given middleware so the chain still runs
// CORS and logging first.
func (s *Server) RequireAuth(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	return append(mw, s.requireAuthMiddleware)
}

func (s *Server) requireAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			writeError(w, http.StatusUnauthorized, "invalid Authorization header")
			return
		}

		userID, err := s.auth.ValidateAccessToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired access token")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyUserID, userID)
		next(w, r.WithContext(ctx))
	}
}
