package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"example.com/identity/internal/model"
)

var _ model.TokenLedger = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	db *Connection
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (
            id, account_id, tenant_id, token_hash, expires_at, revoked_at, scopes, rotated_from, created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
    `

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, query,
		token.ID, token.AccountID, token.TenantID, token.TokenHash,
		token.ExpiresAt, token.RevokedAt, token.Scopes, token.RotatedFrom,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) Find(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	const query = `
        SELECT id, account_id, tenant_id, token_hash, expires_at, revoked_at, scopes, rotated_from, created_at
        FROM refresh_tokens WHERE token_hash = $1
    `

	var rt model.RefreshToken
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&rt.ID, &rt.AccountID, &rt.TenantID, &rt.TokenHash,
		&rt.ExpiresAt, &rt.RevokedAt, &rt.Scopes, &rt.RotatedFrom, &rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to find refresh token: %w", err)
	}
	return rt, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `
        UPDATE refresh_tokens SET revoked_at = NOW()
        WHERE id = $1 AND revoked_at IS NULL
    `

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}
