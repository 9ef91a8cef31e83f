package handler

import (
	"net/http"

	"github.com/google/uuid"

	"example.com/identity/internal/model"
	"example.com/identity/internal/observability"
	"example.com/identity/internal/ratelimit"
)

type tokenRequest struct {
	AccountID string   `json:"account_id"`
	TenantID  string   `json:"tenant_id"`
	Scopes    []string `json:"scopes"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TenantID         string `json:"tenant_id"`
}

type refreshTokenRequest struct {
	RefreshToken string   `json:"refresh_token"`
	Scopes       []string `json:"scopes"`
}

type revokeTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type introspectRequest struct {
	AccessToken string `json:"access_token"`
}

// introspectResponse follows the RFC 7662 shape: inactive tokens answer
// {"active": false} with no further detail.
type introspectResponse struct {
	Active    bool     `json:"active"`
	AccountID string   `json:"account_id,omitempty"`
	TenantID  string   `json:"tenant_id,omitempty"`
	Scopes    []string `json:"scopes,omitempty"`
	IssuedAt  int64    `json:"issued_at,omitempty"`
	ExpiresAt int64    `json:"expires_at,omitempty"`
}

func newTokenResponse(bundle model.TokenBundle) tokenResponse {
	return tokenResponse{
		AccessToken:      bundle.AccessToken,
		TokenType:        "bearer",
		ExpiresIn:        bundle.ExpiresIn,
		RefreshToken:     bundle.RefreshToken,
		RefreshExpiresIn: bundle.RefreshExpiresIn,
		TenantID:         bundle.TenantID,
	}
}

// IssueToken mints a credential bundle for an existing account.
func (h *Identity) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TenantID == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "tenant_id is required"})
		return
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "account_id must be a valid UUID"})
		return
	}

	h.logger.Debug("Identity handler: processing token issue request",
		"tenant_id", req.TenantID,
		"account_id", req.AccountID)

	if !h.gate(w, r, "token", ratelimit.IssueTokenKey(req.TenantID, accountID.String())) {
		return
	}

	bundle, err := h.service.IssueToken(r.Context(), accountID, req.TenantID, req.Scopes)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	observability.RecordTokenIssued()
	respondJSON(w, http.StatusOK, newTokenResponse(bundle))
}

// RefreshToken rotates a presented refresh secret for a new bundle.
func (h *Identity) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "refresh_token is required"})
		return
	}

	h.logger.Debug("Identity handler: processing token refresh request")

	if !h.gate(w, r, "token-refresh", ratelimit.RefreshKey(req.RefreshToken)) {
		return
	}

	bundle, err := h.service.RefreshToken(r.Context(), req.RefreshToken, req.Scopes)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	observability.RecordTokenRefreshed()
	respondJSON(w, http.StatusOK, newTokenResponse(bundle))
}

// RevokeToken retires a refresh secret ahead of its expiry (logout).
func (h *Identity) RevokeToken(w http.ResponseWriter, r *http.Request) {
	var req revokeTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "refresh_token is required"})
		return
	}

	h.logger.Debug("Identity handler: processing token revoke request")

	if !h.gate(w, r, "token-refresh", ratelimit.RefreshKey(req.RefreshToken)) {
		return
	}

	if err := h.service.RevokeToken(r.Context(), req.RefreshToken); err != nil {
		h.respondError(w, r, err)
		return
	}

	observability.RecordTokenRevoked()
	respondJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

// IntrospectToken reports whether a presented access token is valid and,
// when it is, the claims it carries. Invalid tokens are not an error.
func (h *Identity) IntrospectToken(w http.ResponseWriter, r *http.Request) {
	var req introspectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AccessToken == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "access_token is required"})
		return
	}

	claims, err := h.decoder.DecodeAccessToken(req.AccessToken)
	if err != nil {
		respondJSON(w, http.StatusOK, introspectResponse{Active: false})
		return
	}

	respondJSON(w, http.StatusOK, introspectResponse{
		Active:    true,
		AccountID: claims.AccountID.String(),
		TenantID:  claims.TenantID,
		Scopes:    claims.Scopes,
		IssuedAt:  claims.IssuedAt.Unix(),
		ExpiresAt: claims.ExpiresAt.Unix(),
	})
}
