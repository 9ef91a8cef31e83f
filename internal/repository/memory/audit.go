package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"example.com/identity/internal/model"
)

var _ model.AuditSink = (*AuditLogRepository)(nil)

// AuditLogRepository is the in-process audit sink. The clock is a field
// so tests can force timestamp collisions on the keyset ordering.
type AuditLogRepository struct {
	mu     sync.Mutex
	events []model.AuditEvent
	seq    int64
	Now    func() time.Time
}

func NewAuditLogRepository() *AuditLogRepository {
	return &AuditLogRepository{Now: time.Now}
}

func (r *AuditLogRepository) Append(_ context.Context, event model.AuditEvent) (model.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	event.AuditID = r.seq
	event.CreatedAt = r.Now()
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	} else {
		event.Metadata = maps.Clone(event.Metadata)
	}

	r.events = append(r.events, event)
	return event, nil
}

func (r *AuditLogRepository) Query(_ context.Context, q model.AuditQuery) ([]model.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []model.AuditEvent
	for _, event := range r.events {
		if !r.matches(event, q) {
			continue
		}
		event.Metadata = maps.Clone(event.Metadata)
		matched = append(matched, event)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].AuditID > matched[j].AuditID
	})

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (r *AuditLogRepository) matches(event model.AuditEvent, q model.AuditQuery) bool {
	if event.TenantID != q.TenantID {
		return false
	}
	if q.AccountID != nil && (event.AccountID == nil || *event.AccountID != *q.AccountID) {
		return false
	}
	if q.EventType != "" && event.EventType != q.EventType {
		return false
	}
	if q.CreatedAfter != nil && event.CreatedAt.Before(*q.CreatedAfter) {
		return false
	}
	if q.CreatedBefore != nil && event.CreatedAt.After(*q.CreatedBefore) {
		return false
	}
	if q.Cursor != nil {
		if event.CreatedAt.After(q.Cursor.CreatedAt) {
			return false
		}
		if event.CreatedAt.Equal(q.Cursor.CreatedAt) && event.AuditID >= q.Cursor.AuditID {
			return false
		}
	}
	return true
}
