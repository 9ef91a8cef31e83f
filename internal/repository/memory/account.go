package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/identity/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

// AccountRepository keeps accounts and idempotency-key bindings in
// process memory. It mirrors the Postgres semantics and backs unit tests
// and local runs without a database.
type AccountRepository struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]model.Account
	bindings map[bindingKey]uuid.UUID
}

type bindingKey struct {
	tenantID string
	key      string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[uuid.UUID]model.Account),
		bindings: make(map[bindingKey]uuid.UUID),
	}
}

func (r *AccountRepository) Create(_ context.Context, account model.Account) (model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	r.accounts[account.ID] = account
	return account, nil
}

func (r *AccountRepository) Get(_ context.Context, id uuid.UUID, tenantID string) (model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok || account.TenantID != tenantID {
		return model.Account{}, model.ErrNotFound
	}
	return account, nil
}

func (r *AccountRepository) LookupIdempotencyKey(_ context.Context, tenantID, key string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.bindings[bindingKey{tenantID, key}]
	if !ok {
		return uuid.Nil, model.ErrNotFound
	}
	return id, nil
}

func (r *AccountRepository) BindIdempotencyKey(_ context.Context, tenantID, key string, accountID uuid.UUID) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bk := bindingKey{tenantID, key}
	if winner, ok := r.bindings[bk]; ok {
		if winner != accountID {
			delete(r.accounts, accountID)
		}
		return winner, nil
	}
	r.bindings[bk] = accountID
	return accountID, nil
}
