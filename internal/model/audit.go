package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Audit event types recorded by the identity service.
const (
	EventAccountCreated  = "account.created"
	EventAccountReplayed = "account.replayed"
	EventTokenIssued     = "token.issued"
	EventTokenRefreshed  = "token.refreshed"
	EventTokenRevoked    = "token.revoked"
)

// AuditSink defines the append-only audit log.
type AuditSink interface {
	Append(ctx context.Context, event AuditEvent) (AuditEvent, error)
	// Query returns events ordered by (created_at DESC, audit_id DESC),
	// at most q.Limit of them, starting strictly after q.Cursor.
	Query(ctx context.Context, q AuditQuery) ([]AuditEvent, error)
}

// AuditEvent is one immutable audit log entry. AuditID is assigned by the
// sink from a monotonically increasing sequence.
type AuditEvent struct {
	AuditID   int64
	TenantID  string
	AccountID *uuid.UUID
	EventType string
	Actor     string
	Metadata  map[string]any
	CreatedAt time.Time
}

// AuditQuery filters and paginates the audit log for one tenant.
type AuditQuery struct {
	TenantID      string
	AccountID     *uuid.UUID
	EventType     string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Cursor        *AuditCursor
}
