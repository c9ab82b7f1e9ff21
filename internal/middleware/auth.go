package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"chatprojects/internal/domain"
	"chatprojects/internal/domain/models"
	"chatprojects/internal/httputil"
)

// UserResolver turns a bearer token into an active user
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// Auth requires a valid bearer token and stores the resolved user in the request context.
//   - missing/invalid/expired token → 403 with WWW-Authenticate: Bearer
//   - subject no longer exists → 404
//   - inactive user → 400
func Auth(resolver UserResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := httputil.BearerToken(r)
			if !ok {
				httputil.RespondUnauthenticated(w, "Not authenticated")
				return
			}

			user, err := resolver.CurrentUser(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrUnauthorized):
					httputil.RespondUnauthenticated(w, "Could not validate credentials")
				case errors.Is(err, domain.ErrNotFound):
					httputil.RespondError(w, http.StatusNotFound, "User not found")
				case errors.Is(err, domain.ErrInactiveUser):
					httputil.RespondError(w, http.StatusBadRequest, "Inactive user")
				default:
					logger.Error("resolve current user", "path", r.URL.Path, "error", err)
					httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				}
				return
			}

			next.ServeHTTP(w, httputil.WithUser(r, user))
		})
	}
}
