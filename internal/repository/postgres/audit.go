package postgres

import (
	"context"
	"fmt"

	"example.com/identity/internal/model"
)

var _ model.AuditSink = (*AuditLogRepository)(nil)

type AuditLogRepository struct {
	db *Connection
}

func NewAuditLogRepository(db *Connection) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Append(ctx context.Context, event model.AuditEvent) (model.AuditEvent, error) {
	const query = `
        INSERT INTO identity_audit_log (tenant_id, account_id, event_type, actor, metadata, created_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW())
        RETURNING audit_id, created_at
    `

	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	saved := event
	err := r.db.QueryRow(ctx, query,
		event.TenantID, event.AccountID, event.EventType, event.Actor, metadata,
	).Scan(&saved.AuditID, &saved.CreatedAt)
	if err != nil {
		return model.AuditEvent{}, fmt.Errorf("failed to append audit event: %w", err)
	}
	return saved, nil
}

func (r *AuditLogRepository) Query(ctx context.Context, q model.AuditQuery) ([]model.AuditEvent, error) {
	query := `
        SELECT audit_id, tenant_id, account_id, event_type, COALESCE(actor, ''), metadata, created_at
        FROM identity_audit_log
        WHERE tenant_id = $1`
	args := []any{q.TenantID}

	if q.AccountID != nil {
		args = append(args, *q.AccountID)
		query += fmt.Sprintf(" AND account_id = $%d", len(args))
	}
	if q.EventType != "" {
		args = append(args, q.EventType)
		query += fmt.Sprintf(" AND event_type = $%d", len(args))
	}
	if q.CreatedAfter != nil {
		args = append(args, *q.CreatedAfter)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if q.CreatedBefore != nil {
		args = append(args, *q.CreatedBefore)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	if q.Cursor != nil {
		// Row comparison keeps the keyset strictly descending across
		// events sharing one timestamp.
		args = append(args, q.Cursor.CreatedAt, q.Cursor.AuditID)
		query += fmt.Sprintf(" AND (created_at, audit_id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, q.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, audit_id DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var events []model.AuditEvent
	for rows.Next() {
		var event model.AuditEvent
		err := rows.Scan(
			&event.AuditID, &event.TenantID, &event.AccountID,
			&event.EventType, &event.Actor, &event.Metadata, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
