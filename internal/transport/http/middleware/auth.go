package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hostly-api/internal/domain"
	jwtinfra "github.com/hostly-api/internal/infrastructure/jwt"
)

type contextKey string

const userKey contextKey = "user"

// TokenVerifier checks a raw JWT and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*jwtinfra.Claims, error)
}

// UserLoader fetches a user by id.
type UserLoader interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Auth returns middleware that validates the Bearer access token, loads the
// account it names, and injects it into the request context. Every failure
// short-circuits with 401 except store errors, which are 500: an unreachable
// database is not an authentication verdict.
func Auth(tokens TokenVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := tokens.VerifyToken(tokenStr)
			if err != nil {
				if errors.Is(err, jwtinfra.ErrTokenExpired) {
					writeJSONError(w, http.StatusUnauthorized, "token expired")
					return
				}
				writeJSONError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if claims.TokenType != domain.TokenTypeAccess {
				writeJSONError(w, http.StatusUnauthorized, "wrong token type")
				return
			}
			if claims.Subject == "" {
				writeJSONError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			u, err := users.Get(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					writeJSONError(w, http.StatusUnauthorized, "invalid token")
					return
				}
				slog.Error("auth user lookup failed", "user_id", claims.Subject, "err", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !u.IsActive {
				writeJSONError(w, http.StatusUnauthorized, "account deactivated")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok
}
