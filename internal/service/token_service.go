package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/identity/internal/logger"
	"example.com/identity/internal/model"
	"example.com/identity/internal/token"
)

// TokenService issues, refreshes, and revokes credentials. It composes the
// CredentialIssuer with the token ledger; refresh secrets only ever reach
// the ledger in hashed form.
type TokenService struct {
	issuer     model.CredentialIssuer
	ledger     model.TokenLedger
	accounts   model.AccountStore
	refreshTTL time.Duration
	logger     *logger.Logger
}

func NewTokenService(issuer model.CredentialIssuer, ledger model.TokenLedger, accounts model.AccountStore, refreshTTL time.Duration, logger *logger.Logger) *TokenService {
	return &TokenService{
		issuer:     issuer,
		ledger:     ledger,
		accounts:   accounts,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// RefreshResult carries the replacement bundle together with both ledger
// records involved in a rotation.
type RefreshResult struct {
	Bundle  model.TokenBundle
	Token   model.RefreshToken
	Rotated model.RefreshToken
}

// Issue mints an access token and a fresh refresh secret for the account.
// The returned record is the persisted ledger entry; the raw secret lives
// only in the bundle.
func (s *TokenService) Issue(ctx context.Context, account model.Account, scopes []string) (model.TokenBundle, model.RefreshToken, error) {
	return s.issue(ctx, account, token.ResolveScopes(scopes), nil)
}

// Refresh redeems a presented secret for a replacement bundle, walking the
// failure ladder in order: unknown, revoked, expired, account unavailable.
// The presented record is revoked before the replacement exists; losing a
// concurrent rotation of the same record reports it as revoked.
func (s *TokenService) Refresh(ctx context.Context, rawSecret string, scopes []string) (RefreshResult, error) {
	record, err := s.ledger.Find(ctx, s.issuer.HashRefreshSecret(rawSecret))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return RefreshResult{}, model.ErrInvalidToken
		}
		return RefreshResult{}, err
	}

	if record.RevokedAt != nil {
		return RefreshResult{}, model.ErrTokenRevoked
	}

	now := time.Now()
	if !record.ExpiresAt.After(now) {
		// Expired secrets are retired eagerly so a replay classifies as
		// revoked, not expired.
		if _, err := s.ledger.Revoke(ctx, record.ID); err != nil {
			return RefreshResult{}, fmt.Errorf("failed to retire expired token: %w", err)
		}
		return RefreshResult{}, model.ErrTokenExpired
	}

	account, err := s.accounts.Get(ctx, record.AccountID, record.TenantID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return RefreshResult{}, err
	}
	if errors.Is(err, model.ErrNotFound) || account.Disabled {
		if _, err := s.ledger.Revoke(ctx, record.ID); err != nil {
			return RefreshResult{}, fmt.Errorf("failed to retire orphaned token: %w", err)
		}
		return RefreshResult{}, model.ErrAccountUnavailable
	}

	// Rotation point: only the caller that flips the record proceeds.
	claimed, err := s.ledger.Revoke(ctx, record.ID)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("failed to revoke rotated token: %w", err)
	}
	if !claimed {
		return RefreshResult{}, model.ErrTokenRevoked
	}

	granted := record.Scopes
	if len(scopes) > 0 {
		granted = token.ResolveScopes(scopes)
	} else if len(granted) == 0 {
		granted = token.DefaultScopes()
	}

	bundle, replacement, err := s.issue(ctx, account, granted, &record.ID)
	if err != nil {
		return RefreshResult{}, err
	}

	return RefreshResult{Bundle: bundle, Token: replacement, Rotated: record}, nil
}

// Revoke retires the record matching a presented secret. It is idempotent;
// claimed reports whether this call performed the transition.
func (s *TokenService) Revoke(ctx context.Context, rawSecret string) (model.RefreshToken, bool, error) {
	record, err := s.ledger.Find(ctx, s.issuer.HashRefreshSecret(rawSecret))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.RefreshToken{}, false, model.ErrInvalidToken
		}
		return model.RefreshToken{}, false, err
	}

	claimed, err := s.ledger.Revoke(ctx, record.ID)
	if err != nil {
		return model.RefreshToken{}, false, fmt.Errorf("failed to revoke token: %w", err)
	}
	return record, claimed, nil
}

func (s *TokenService) issue(ctx context.Context, account model.Account, granted []string, rotatedFrom *uuid.UUID) (model.TokenBundle, model.RefreshToken, error) {
	access, expiresIn, err := s.issuer.IssueAccessToken(account.ID, account.TenantID, granted)
	if err != nil {
		return model.TokenBundle{}, model.RefreshToken{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	raw, hash, err := s.issuer.GenerateRefreshSecret()
	if err != nil {
		return model.TokenBundle{}, model.RefreshToken{}, fmt.Errorf("failed to generate refresh secret: %w", err)
	}

	now := time.Now()
	record := model.RefreshToken{
		ID:          uuid.New(),
		AccountID:   account.ID,
		TenantID:    account.TenantID,
		TokenHash:   hash,
		ExpiresAt:   now.Add(s.refreshTTL),
		Scopes:      granted,
		RotatedFrom: rotatedFrom,
		CreatedAt:   now,
	}
	if err := s.ledger.Create(ctx, record); err != nil {
		return model.TokenBundle{}, model.RefreshToken{}, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	bundle := model.TokenBundle{
		AccessToken:      access,
		ExpiresIn:        expiresIn,
		RefreshToken:     raw,
		RefreshExpiresIn: int(s.refreshTTL.Seconds()),
		TenantID:         account.TenantID,
	}
	return bundle, record, nil
}
