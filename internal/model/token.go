package model

import (
	"time"

	"github.com/google/uuid"
)

// CredentialIssuer mints and validates access credentials and refresh
// secrets. Raw refresh secrets are returned exactly once; only their
// hash form is ever stored.
type CredentialIssuer interface {
	IssueAccessToken(accountID uuid.UUID, tenantID string, scopes []string) (token string, expiresIn int, err error)
	DecodeAccessToken(token string) (AccessTokenClaims, error)
	GenerateRefreshSecret() (raw string, hash string, err error)
	HashRefreshSecret(raw string) string
}

// AccessTokenClaims is the verified payload of an access token.
type AccessTokenClaims struct {
	AccountID uuid.UUID
	TenantID  string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenBundle is the result of issuing or refreshing credentials.
// RefreshToken carries the one-time raw secret.
type TokenBundle struct {
	AccessToken      string
	ExpiresIn        int
	RefreshToken     string
	RefreshExpiresIn int
	TenantID         string
}
