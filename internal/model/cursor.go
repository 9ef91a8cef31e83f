package model

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AuditCursor marks a position in the audit log keyset ordering
// (created_at DESC, audit_id DESC). The audit id breaks ties between
// events sharing a timestamp.
type AuditCursor struct {
	CreatedAt time.Time
	AuditID   int64
}

// EncodeAuditCursor serialises the cursor to an opaque token.
func EncodeAuditCursor(c *AuditCursor) string {
	if c == nil {
		return ""
	}
	raw := fmt.Sprintf("%s|%d", c.CreatedAt.UTC().Format(time.RFC3339Nano), c.AuditID)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeAuditCursor parses an encoded cursor token. A tampered or
// malformed token yields ErrInvalidCursor.
func DecodeAuditCursor(token string) (*AuditCursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, ErrInvalidCursor
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &AuditCursor{CreatedAt: ts, AuditID: id}, nil
}
