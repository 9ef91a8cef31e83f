package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/identity/internal/logger"
	"example.com/identity/internal/model"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 100
)

// Identity orchestrates account lifecycle, credential issuance, and the
// audit trail. Capability semantics live behind the store interfaces; this
// layer owns ordering and the error taxonomy.
type Identity struct {
	accounts model.AccountStore
	audit    model.AuditSink
	tokens   *TokenService
	logger   *logger.Logger
}

func NewIdentity(
	accounts model.AccountStore,
	ledger model.TokenLedger,
	audit model.AuditSink,
	issuer model.CredentialIssuer,
	refreshTTL time.Duration,
	logger *logger.Logger,
) *Identity {
	return &Identity{
		accounts: accounts,
		audit:    audit,
		tokens:   NewTokenService(issuer, ledger, accounts, refreshTTL, logger),
		logger:   logger,
	}
}

// CreateAccount provisions an account. With an idempotency key the call is
// replay-safe: any later call carrying the same (tenant, key) pair returns
// the originally created account with replayed=true, and concurrent
// duplicates resolve to a single winner.
func (s *Identity) CreateAccount(ctx context.Context, params model.CreateAccountParams) (model.Account, bool, error) {
	s.logger.Debug("Identity service: creating account",
		"tenant_id", params.TenantID,
		"email", params.Email)

	if params.IdempotencyKey != "" {
		existingID, err := s.accounts.LookupIdempotencyKey(ctx, params.TenantID, params.IdempotencyKey)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return model.Account{}, false, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
		if err == nil {
			return s.replayAccount(ctx, existingID, params)
		}
	}

	account, err := s.accounts.Create(ctx, model.Account{
		ID:       uuid.New(),
		TenantID: params.TenantID,
		Email:    params.Email,
		Disabled: params.Disabled,
	})
	if err != nil {
		s.logger.Error("Identity service: failed to create account",
			"tenant_id", params.TenantID,
			"error", err.Error())
		return model.Account{}, false, fmt.Errorf("failed to create account: %w", err)
	}

	if params.IdempotencyKey != "" {
		winner, err := s.accounts.BindIdempotencyKey(ctx, params.TenantID, params.IdempotencyKey, account.ID)
		if err != nil {
			return model.Account{}, false, fmt.Errorf("failed to bind idempotency key: %w", err)
		}
		if winner != account.ID {
			// A concurrent caller bound the key first; their account is
			// the only one observable.
			return s.replayAccount(ctx, winner, params)
		}
	}

	if err := s.auditAccount(ctx, model.EventAccountCreated, account, params.IdempotencyKey); err != nil {
		return model.Account{}, false, err
	}

	s.logger.Info("Identity service: account created",
		"tenant_id", account.TenantID,
		"account_id", account.ID)

	return account, false, nil
}

// GetAccount fetches an account within its tenant.
func (s *Identity) GetAccount(ctx context.Context, id uuid.UUID, tenantID string) (model.Account, error) {
	account, err := s.accounts.Get(ctx, id, tenantID)
	if err != nil {
		return model.Account{}, err
	}
	return account, nil
}

// IssueToken mints a credential bundle for an existing account. Requested
// scopes pass through the grant policy; a disabled account cannot receive
// credentials.
func (s *Identity) IssueToken(ctx context.Context, accountID uuid.UUID, tenantID string, scopes []string) (model.TokenBundle, error) {
	account, err := s.accounts.Get(ctx, accountID, tenantID)
	if err != nil {
		return model.TokenBundle{}, err
	}
	if account.Disabled {
		return model.TokenBundle{}, model.ErrAccountUnavailable
	}

	bundle, record, err := s.tokens.Issue(ctx, account, scopes)
	if err != nil {
		s.logger.Error("Identity service: failed to issue token",
			"tenant_id", tenantID,
			"account_id", accountID,
			"error", err.Error())
		return model.TokenBundle{}, err
	}

	if err := s.auditToken(ctx, model.EventTokenIssued, record, map[string]any{
		"token_id": record.ID.String(),
		"scopes":   record.Scopes,
	}); err != nil {
		return model.TokenBundle{}, err
	}

	s.logger.Info("Identity service: token issued",
		"tenant_id", tenantID,
		"account_id", accountID)

	return bundle, nil
}

// RefreshToken rotates a presented refresh secret for a new bundle.
func (s *Identity) RefreshToken(ctx context.Context, rawSecret string, scopes []string) (model.TokenBundle, error) {
	result, err := s.tokens.Refresh(ctx, rawSecret, scopes)
	if err != nil {
		return model.TokenBundle{}, err
	}

	if err := s.auditToken(ctx, model.EventTokenRefreshed, result.Token, map[string]any{
		"token_id":     result.Token.ID.String(),
		"rotated_from": result.Rotated.ID.String(),
		"scopes":       result.Token.Scopes,
	}); err != nil {
		return model.TokenBundle{}, err
	}

	s.logger.Info("Identity service: token refreshed",
		"tenant_id", result.Token.TenantID,
		"account_id", result.Token.AccountID)

	return result.Bundle, nil
}

// RevokeToken retires a refresh secret ahead of its expiry (logout).
// Revoking an already revoked secret is a no-op.
func (s *Identity) RevokeToken(ctx context.Context, rawSecret string) error {
	record, claimed, err := s.tokens.Revoke(ctx, rawSecret)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	if err := s.auditToken(ctx, model.EventTokenRevoked, record, map[string]any{
		"token_id": record.ID.String(),
	}); err != nil {
		return err
	}

	s.logger.Info("Identity service: token revoked",
		"tenant_id", record.TenantID,
		"account_id", record.AccountID)

	return nil
}

// ListAuditParams filters and paginates one tenant's audit trail.
type ListAuditParams struct {
	TenantID      string
	AccountID     *uuid.UUID
	EventType     string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Cursor        string
}

// ListAuditEvents returns one page ordered newest first. The next cursor
// is empty exactly when no further matching events exist.
func (s *Identity) ListAuditEvents(ctx context.Context, params ListAuditParams) ([]model.AuditEvent, string, error) {
	limit := params.Limit
	if limit == 0 {
		limit = defaultAuditLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	if params.CreatedAfter != nil && params.CreatedBefore != nil && params.CreatedAfter.After(*params.CreatedBefore) {
		return nil, "", model.ErrInvalidFilter
	}

	cursor, err := model.DecodeAuditCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	// One extra row decides whether a next page truly exists.
	events, err := s.audit.Query(ctx, model.AuditQuery{
		TenantID:      params.TenantID,
		AccountID:     params.AccountID,
		EventType:     params.EventType,
		CreatedAfter:  params.CreatedAfter,
		CreatedBefore: params.CreatedBefore,
		Limit:         limit + 1,
		Cursor:        cursor,
	})
	if err != nil {
		s.logger.Error("Identity service: failed to query audit log",
			"tenant_id", params.TenantID,
			"error", err.Error())
		return nil, "", fmt.Errorf("failed to query audit log: %w", err)
	}

	if len(events) <= limit {
		return events, "", nil
	}

	events = events[:limit]
	last := events[len(events)-1]
	next := model.EncodeAuditCursor(&model.AuditCursor{CreatedAt: last.CreatedAt, AuditID: last.AuditID})
	return events, next, nil
}

func (s *Identity) replayAccount(ctx context.Context, id uuid.UUID, params model.CreateAccountParams) (model.Account, bool, error) {
	account, err := s.accounts.Get(ctx, id, params.TenantID)
	if err != nil {
		return model.Account{}, false, fmt.Errorf("failed to load replayed account: %w", err)
	}

	if err := s.auditAccount(ctx, model.EventAccountReplayed, account, params.IdempotencyKey); err != nil {
		return model.Account{}, false, err
	}

	s.logger.Info("Identity service: account creation replayed",
		"tenant_id", account.TenantID,
		"account_id", account.ID)

	return account, true, nil
}

func (s *Identity) auditAccount(ctx context.Context, eventType string, account model.Account, idempotencyKey string) error {
	metadata := map[string]any{"email": account.Email}
	if idempotencyKey != "" {
		metadata["idempotency_key"] = idempotencyKey
	}

	accountID := account.ID
	_, err := s.audit.Append(ctx, model.AuditEvent{
		TenantID:  account.TenantID,
		AccountID: &accountID,
		EventType: eventType,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

func (s *Identity) auditToken(ctx context.Context, eventType string, record model.RefreshToken, metadata map[string]any) error {
	accountID := record.AccountID
	_, err := s.audit.Append(ctx, model.AuditEvent{
		TenantID:  record.TenantID,
		AccountID: &accountID,
		EventType: eventType,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}
