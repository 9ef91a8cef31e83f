package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Limiter admits or rejects a single request charged against a key over a
// sliding window. Implementations are safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config holds the shared quota: at most Requests admissions per key
// within any Window-sized interval.
type Config struct {
	Requests int
	Window   time.Duration
}

// CreateAccountKey charges account creation against the tenant.
func CreateAccountKey(tenantID string) string {
	return "create:" + tenantID
}

// IssueTokenKey charges token issuance against the (tenant, account) pair.
func IssueTokenKey(tenantID, accountID string) string {
	return fmt.Sprintf("token:%s:%s", tenantID, accountID)
}

// RefreshKey charges token refresh against a digest prefix of the
// presented secret, so the raw secret never appears in limiter state.
func RefreshKey(rawSecret string) string {
	sum := sha256.Sum256([]byte(rawSecret))
	return "token-refresh:" + hex.EncodeToString(sum[:])[:12]
}
