package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/identity/internal/model"
)

var _ model.TokenLedger = (*RefreshTokenRepository)(nil)

// RefreshTokenRepository is the in-process token ledger.
type RefreshTokenRepository struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]model.RefreshToken
	byHash map[string]uuid.UUID
}

func NewRefreshTokenRepository() *RefreshTokenRepository {
	return &RefreshTokenRepository{
		byID:   make(map[uuid.UUID]model.RefreshToken),
		byHash: make(map[string]uuid.UUID),
	}
}

func (r *RefreshTokenRepository) Create(_ context.Context, token model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.CreatedAt = time.Now()
	token.Scopes = slices.Clone(token.Scopes)

	r.byID[token.ID] = token
	r.byHash[token.TokenHash] = token.ID
	return nil
}

func (r *RefreshTokenRepository) Find(_ context.Context, tokenHash string) (model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byHash[tokenHash]
	if !ok {
		return model.RefreshToken{}, model.ErrNotFound
	}
	token := r.byID[id]
	token.Scopes = slices.Clone(token.Scopes)
	return token, nil
}

func (r *RefreshTokenRepository) Revoke(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.byID[id]
	if !ok || token.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	token.RevokedAt = &now
	r.byID[id] = token
	return true, nil
}
