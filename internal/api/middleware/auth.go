package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bcnelson/recipe-api/internal/domain"
)

type contextKey string

const UserContextKey contextKey = "user"

// Authenticator resolves a token key to the user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*domain.User, error)
}

// authSchemes are the accepted Authorization header prefixes.
var authSchemes = []string{"Token ", "Bearer "}

// Auth creates token authentication middleware.
func Auth(authenticator Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "authentication credentials were not provided")
				return
			}

			key, ok := tokenFromHeader(authHeader)
			if !ok {
				unauthorized(w, "invalid authorization header format")
				return
			}
			if key == "" {
				unauthorized(w, "invalid token header: no credentials provided")
				return
			}

			user, err := authenticator.Authenticate(r.Context(), key)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					unauthorized(w, "invalid token")
					return
				}
				logger.Error("token authentication failed", "error", err)
				writeError(w, http.StatusInternalServerError, domain.ErrCodeInternalError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireStaff rejects authenticated users without staff access.
// It must run after Auth.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			unauthorized(w, "authentication credentials were not provided")
			return
		}
		if !user.IsStaff {
			writeError(w, http.StatusForbidden, domain.ErrCodeForbidden,
				"you do not have permission to perform this action")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext retrieves the authenticated user from the request context.
func GetUserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(UserContextKey).(*domain.User)
	return user
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

func tokenFromHeader(header string) (string, bool) {
	for _, scheme := range authSchemes {
		if len(header) >= len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
			return strings.TrimSpace(header[len(scheme):]), true
		}
	}
	return "", false
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Token")
	writeError(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, message)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&domain.StandardErrorResponse{
		Error: domain.StandardError{Code: code, Message: message},
	})
}
