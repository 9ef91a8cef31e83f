package handler

import (
	"errors"
	"net/http"

	"example.com/identity/internal/model"
	"example.com/identity/internal/ratelimit"
)

type errorResponse struct {
	Error string `json:"error"`
}

// handleError maps service error kinds to HTTP responses. Kinds are
// matched with errors.Is, never by message text.
func handleError(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, model.ErrInvalidToken):
		return http.StatusUnauthorized, "refresh token is invalid"
	case errors.Is(err, model.ErrTokenRevoked):
		return http.StatusUnauthorized, "refresh token has been revoked"
	case errors.Is(err, model.ErrTokenExpired):
		return http.StatusUnauthorized, "refresh token has expired"
	case errors.Is(err, model.ErrAccountUnavailable):
		return http.StatusUnauthorized, "account is unavailable"
	case errors.Is(err, model.ErrInvalidCredential):
		return http.StatusUnauthorized, "access token is invalid"
	case errors.Is(err, model.ErrInvalidCursor):
		return http.StatusBadRequest, "cursor is invalid"
	case errors.Is(err, model.ErrInvalidFilter):
		return http.StatusBadRequest, "created_after must not be later than created_before"
	case errors.Is(err, model.ErrUnavailable), errors.Is(err, ratelimit.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "service dependency unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *Identity) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := handleError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Identity handler: request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error())
	}
	respondJSON(w, status, errorResponse{Error: message})
}
