package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"example.com/identity/internal/model"
	"example.com/identity/internal/observability"
	"example.com/identity/internal/ratelimit"
)

// tenantHeader scopes account and audit reads to one tenant.
const (
	tenantHeader         = "X-Tenant-ID"
	idempotencyKeyHeader = "Idempotency-Key"
)

type createAccountRequest struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	Disabled bool   `json:"disabled"`
}

type accountResponse struct {
	AccountID string    `json:"account_id"`
	TenantID  string    `json:"tenant_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Disabled  bool      `json:"disabled"`
}

type createAccountResponse struct {
	Account          accountResponse `json:"account"`
	IdempotentReplay bool            `json:"idempotent_replay"`
}

func newAccountResponse(account model.Account) accountResponse {
	return accountResponse{
		AccountID: account.ID.String(),
		TenantID:  account.TenantID,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
		Disabled:  account.Disabled,
	}
}

// CreateAccount provisions an account. The Idempotency-Key header makes
// the call replay-safe: a replay answers 200, a fresh creation 201.
func (h *Identity) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TenantID == "" || req.Email == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "tenant_id and email are required"})
		return
	}

	h.logger.Debug("Identity handler: processing account creation request",
		"tenant_id", req.TenantID)

	if !h.gate(w, r, "create", ratelimit.CreateAccountKey(req.TenantID)) {
		return
	}

	account, replayed, err := h.service.CreateAccount(r.Context(), model.CreateAccountParams{
		TenantID:       req.TenantID,
		Email:          req.Email,
		Disabled:       req.Disabled,
		IdempotencyKey: r.Header.Get(idempotencyKeyHeader),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	observability.RecordAccountCreated(replayed)

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	respondJSON(w, status, createAccountResponse{
		Account:          newAccountResponse(account),
		IdempotentReplay: replayed,
	})
}

// GetAccount retrieves an account belonging to the requester tenant.
func (h *Identity) GetAccount(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(tenantHeader)
	if tenantID == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "X-Tenant-ID header is required"})
		return
	}

	accountID, err := uuid.Parse(mux.Vars(r)["account_id"])
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "account_id must be a valid UUID"})
		return
	}

	account, err := h.service.GetAccount(r.Context(), accountID, tenantID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newAccountResponse(account))
}
