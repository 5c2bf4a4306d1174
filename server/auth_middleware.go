package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyIdentity stores the authenticated *users.Identity
	ContextKeyIdentity ContextKey = "identity"
)

// RequireAuth is middleware that validates a Bearer access token
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeMessage(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
				writeMessage(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			identity, err := s.tokens.Parse(parts[1])
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			// Tokens of deleted or blocked accounts stop working immediately
			user, err := s.repos.Users.GetByID(identity.ID)
			if err != nil || user.Blocked {
				writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyIdentity, identity)))
		}
	}
}

// identityFromContext returns the user RequireAuth admitted.
func identityFromContext(ctx context.Context) (*users.Identity, error) {
	identity, ok := ctx.Value(ContextKeyIdentity).(*users.Identity)
	if !ok || identity == nil {
		return nil, errors.ErrNotAuthenticated
	}
	return identity, nil
}
