package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TokenLedger interface {
	Create(ctx context.Context, token RefreshToken) error
	// Find returns the record for a secret hash regardless of revocation
	// state, or ErrNotFound. Revoked and expired records are returned so
	// callers can classify replays deterministically.
	Find(ctx context.Context, tokenHash string) (RefreshToken, error)
	// Revoke marks the token revoked. It is idempotent; claimed reports
	// whether this call performed the active-to-revoked transition.
	Revoke(ctx context.Context, id uuid.UUID) (claimed bool, err error)
}

type RefreshToken struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	TenantID    string
	TokenHash   string
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	Scopes      []string
	RotatedFrom *uuid.UUID
	CreatedAt   time.Time
}

// Active reports whether the token can still be redeemed at now.
func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}
