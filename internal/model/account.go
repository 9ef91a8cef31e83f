package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStore defines persistence operations for accounts and their
// idempotency-key bindings.
type AccountStore interface {
	Create(ctx context.Context, account Account) (Account, error)
	Get(ctx context.Context, id uuid.UUID, tenantID string) (Account, error)
	// LookupIdempotencyKey returns the account bound to (tenantID, key),
	// or ErrNotFound when the key has never been bound.
	LookupIdempotencyKey(ctx context.Context, tenantID, key string) (uuid.UUID, error)
	// BindIdempotencyKey binds (tenantID, key) to accountID unless a
	// concurrent caller bound it first. It returns the winning account id;
	// a losing bind discards the duplicate account row.
	BindIdempotencyKey(ctx context.Context, tenantID, key string, accountID uuid.UUID) (uuid.UUID, error)
}

// Account represents a stored tenant account.
type Account struct {
	ID        uuid.UUID
	TenantID  string
	Email     string
	Disabled  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateAccountParams contains parameters to create an account.
type CreateAccountParams struct {
	TenantID       string
	Email          string
	Disabled       bool
	IdempotencyKey string
}
