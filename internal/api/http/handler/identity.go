package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"example.com/identity/internal/logger"
	"example.com/identity/internal/model"
	"example.com/identity/internal/observability"
	"example.com/identity/internal/ratelimit"
	"example.com/identity/internal/service"
)

// IdentityService defines account, credential and audit operations.
type IdentityService interface {
	CreateAccount(ctx context.Context, params model.CreateAccountParams) (model.Account, bool, error)
	GetAccount(ctx context.Context, id uuid.UUID, tenantID string) (model.Account, error)
	IssueToken(ctx context.Context, accountID uuid.UUID, tenantID string, scopes []string) (model.TokenBundle, error)
	RefreshToken(ctx context.Context, rawSecret string, scopes []string) (model.TokenBundle, error)
	RevokeToken(ctx context.Context, rawSecret string) error
	ListAuditEvents(ctx context.Context, params service.ListAuditParams) ([]model.AuditEvent, string, error)
}

// CredentialDecoder verifies presented access tokens.
type CredentialDecoder interface {
	DecodeAccessToken(token string) (model.AccessTokenClaims, error)
}

// Identity handles HTTP endpoints for the identity service.
type Identity struct {
	service IdentityService
	decoder CredentialDecoder
	limiter ratelimit.Limiter
	logger  *logger.Logger
}

// NewIdentity creates a new Identity handler.
func NewIdentity(service IdentityService, decoder CredentialDecoder, limiter ratelimit.Limiter, logger *logger.Logger) *Identity {
	return &Identity{
		service: service,
		decoder: decoder,
		limiter: limiter,
		logger:  logger,
	}
}

// gate runs the sliding window quota for the operation before the service
// is invoked. A rejected or failed gate writes the response itself.
func (h *Identity) gate(w http.ResponseWriter, r *http.Request, operation, key string) bool {
	allowed, err := h.limiter.Allow(r.Context(), key)
	if err != nil {
		h.logger.Error("Identity handler: rate limit backend error",
			"operation", operation,
			"error", err.Error())
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "rate limit backend unavailable"})
		return false
	}
	if !allowed {
		observability.RecordRateLimitRejection(operation)
		respondJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limited"})
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func parseTimestamp(value string) (*time.Time, error) {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
