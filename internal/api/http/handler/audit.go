package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"example.com/identity/internal/model"
	"example.com/identity/internal/service"
)

type auditLogEntry struct {
	AuditID   int64          `json:"audit_id"`
	AccountID *string        `json:"account_id"`
	TenantID  string         `json:"tenant_id"`
	EventType string         `json:"event_type"`
	Actor     *string        `json:"actor"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

type auditLogResponse struct {
	Items      []auditLogEntry `json:"items"`
	NextCursor *string         `json:"next_cursor"`
}

func newAuditLogEntry(event model.AuditEvent) auditLogEntry {
	entry := auditLogEntry{
		AuditID:   event.AuditID,
		TenantID:  event.TenantID,
		EventType: event.EventType,
		Metadata:  event.Metadata,
		CreatedAt: event.CreatedAt,
	}
	if event.AccountID != nil {
		accountID := event.AccountID.String()
		entry.AccountID = &accountID
	}
	if event.Actor != "" {
		actor := event.Actor
		entry.Actor = &actor
	}
	return entry
}

// ListAuditLogs returns one page of the tenant's audit trail, newest
// first, with optional filters and keyset cursor pagination.
func (h *Identity) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(tenantHeader)
	if tenantID == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "X-Tenant-ID header is required"})
		return
	}

	params := service.ListAuditParams{
		TenantID:  tenantID,
		EventType: r.URL.Query().Get("event_type"),
		Cursor:    r.URL.Query().Get("cursor"),
	}

	if raw := r.URL.Query().Get("account_id"); raw != "" {
		accountID, err := uuid.Parse(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "account_id must be a valid UUID"})
			return
		}
		params.AccountID = &accountID
	}

	if raw := r.URL.Query().Get("created_after"); raw != "" {
		ts, err := parseTimestamp(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "created_after must be an RFC 3339 timestamp"})
			return
		}
		params.CreatedAfter = ts
	}

	if raw := r.URL.Query().Get("created_before"); raw != "" {
		ts, err := parseTimestamp(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "created_before must be an RFC 3339 timestamp"})
			return
		}
		params.CreatedBefore = ts
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		params.Limit = limit
	}

	events, nextCursor, err := h.service.ListAuditEvents(r.Context(), params)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	items := make([]auditLogEntry, 0, len(events))
	for _, event := range events {
		items = append(items, newAuditLogEntry(event))
	}

	response := auditLogResponse{Items: items}
	if nextCursor != "" {
		response.NextCursor = &nextCursor
	}
	respondJSON(w, http.StatusOK, response)
}
