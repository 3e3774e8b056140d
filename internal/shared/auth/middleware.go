package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/aavaaz-civic/platform/internal/shared/httputil"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// Middleware resolves the bearer token into the acting user
func Middleware(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.WriteError(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				httputil.WriteError(w, errors.Unauthorized("invalid authorization header format"))
				return
			}

			user, err := tokens.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				log.Debug().Err(err).Msg("rejected token")
				httputil.WriteError(w, errors.Unauthorized("invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser stores the acting user in ctx
func WithUser(ctx context.Context, u *identity.User) context.Context {
	return context.WithValue(ctx, UserContextKey, u)
}

// GetUser extracts the user from request context
func GetUser(ctx context.Context) *identity.User {
	user, ok := ctx.Value(UserContextKey).(*identity.User)
	if !ok {
		return nil
	}
	return user
}

// RequireRoles creates middleware that requires one of the given roles
func RequireRoles(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				httputil.WriteError(w, errors.Unauthorized("authentication required"))
				return
			}

			if !hasAnyRole(user.Role, roles) {
				httputil.WriteError(w, errors.Forbidden("insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasAnyRole(role identity.Role, required []identity.Role) bool {
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}
