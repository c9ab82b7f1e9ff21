package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"chatprojects/internal/domain"
	"chatprojects/internal/httputil"
)

// handleError converts domain errors to HTTP responses.
// Conflicts and validation failures are 400; credential failures are 403 with a Bearer challenge.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var conflictErr *domain.ConflictError

	switch {
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusBadRequest, conflictErr.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInactiveUser):
		httputil.RespondError(w, http.StatusBadRequest, "Inactive user")
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, notFoundDetail(err))
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondUnauthenticated(w, "Could not validate credentials")
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, "Not enough permissions")
	case errors.Is(err, domain.ErrProviderFailure):
		logger.Error("llm provider failure", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "LLM provider failed to respond")
	default:
		logger.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// notFoundDetail keeps the service's "<thing> not found" prefix when there is one
func notFoundDetail(err error) string {
	msg := err.Error()
	if prefix, _, ok := strings.Cut(msg, ": "); ok && strings.HasSuffix(prefix, "not found") {
		return prefix
	}
	return "not found"
}

// PathParam extracts a UUID path value. On failure it writes a 404 and returns false,
// since a malformed ID can never name an existing resource.
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := r.PathValue(name)
	if value == "" {
		httputil.RespondError(w, http.StatusBadRequest, label+" is required")
		return "", false
	}
	if _, err := uuid.Parse(value); err != nil {
		httputil.RespondError(w, http.StatusNotFound, label+" not found")
		return "", false
	}
	return value, true
}
