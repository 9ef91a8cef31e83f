package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"example.com/identity/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	const query = `
        INSERT INTO accounts (id, tenant_id, email, disabled, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        RETURNING id, tenant_id, email, disabled, created_at, updated_at
    `

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	var saved model.Account
	err := r.db.QueryRow(ctx, query,
		account.ID, account.TenantID, account.Email, account.Disabled,
	).Scan(
		&saved.ID, &saved.TenantID, &saved.Email, &saved.Disabled,
		&saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	return saved, nil
}

func (r *AccountRepository) Get(ctx context.Context, id uuid.UUID, tenantID string) (model.Account, error) {
	const query = `
        SELECT id, tenant_id, email, disabled, created_at, updated_at
        FROM accounts WHERE id = $1 AND tenant_id = $2
    `

	var account model.Account
	err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&account.ID, &account.TenantID, &account.Email, &account.Disabled,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) LookupIdempotencyKey(ctx context.Context, tenantID, key string) (uuid.UUID, error) {
	const query = `
        SELECT account_id FROM account_idempotency
        WHERE tenant_id = $1 AND idempotency_key = $2
    `

	var accountID uuid.UUID
	err := r.db.QueryRow(ctx, query, tenantID, key).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, model.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	return accountID, nil
}

func (r *AccountRepository) BindIdempotencyKey(ctx context.Context, tenantID, key string, accountID uuid.UUID) (uuid.UUID, error) {
	// Insert the mapping unless a concurrent caller bound the key first;
	// either way the bound account id comes back in one statement.
	const query = `
        WITH ins AS (
            INSERT INTO account_idempotency (tenant_id, idempotency_key, account_id, created_at)
            VALUES ($1, $2, $3, NOW())
            ON CONFLICT (tenant_id, idempotency_key) DO NOTHING
            RETURNING account_id
        )
        SELECT account_id FROM ins
        UNION ALL
        SELECT account_id FROM account_idempotency
        WHERE NOT EXISTS (SELECT 1 FROM ins) AND tenant_id = $1 AND idempotency_key = $2
        LIMIT 1
    `

	var winner uuid.UUID
	if err := r.db.QueryRow(ctx, query, tenantID, key, accountID).Scan(&winner); err != nil {
		return uuid.Nil, fmt.Errorf("failed to bind idempotency key: %w", err)
	}

	if winner != accountID {
		// Lost the race; the freshly created account row is unreachable
		// and gets discarded.
		const cleanup = `DELETE FROM accounts WHERE id = $1 AND tenant_id = $2`
		if _, err := r.db.Exec(ctx, cleanup, accountID, tenantID); err != nil {
			return uuid.Nil, fmt.Errorf("failed to discard duplicate account: %w", err)
		}
	}
	return winner, nil
}
