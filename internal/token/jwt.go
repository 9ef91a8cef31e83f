package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"example.com/identity/internal/model"
)

// Claims represents access token claims carrying tenant and scope grants.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string   `json:"tenant_id"`
	Scopes   []string `json:"scopes"`
}

// JWT implements CredentialIssuer backed by symmetric HMAC.
type JWT struct {
	secretKey string
	issuer    string
	accessTTL time.Duration
}

// NewJWT creates a credential issuer signing HS256 tokens for issuer
// with the provided secret key and access token lifetime.
func NewJWT(secretKey, issuer string, accessTTL time.Duration) model.CredentialIssuer {
	return &JWT{secretKey: secretKey, issuer: issuer, accessTTL: accessTTL}
}

const refreshSecretBytes = 48

// IssueAccessToken signs a short-lived access token for the account.
func (j *JWT) IssueAccessToken(accountID uuid.UUID, tenantID string, scopes []string) (string, int, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		TenantID: tenantID,
		Scopes:   scopes,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, int(j.accessTTL.Seconds()), nil
}

// DecodeAccessToken verifies signature, signing method, issuer and expiry,
// and extracts the claims. Any verification failure yields
// model.ErrInvalidCredential.
func (j *JWT) DecodeAccessToken(tokenString string) (model.AccessTokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(j.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return model.AccessTokenClaims{}, fmt.Errorf("%w: %v", model.ErrInvalidCredential, err)
	}
	if !token.Valid {
		return model.AccessTokenClaims{}, model.ErrInvalidCredential
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.AccessTokenClaims{}, fmt.Errorf("%w: bad subject", model.ErrInvalidCredential)
	}

	decoded := model.AccessTokenClaims{
		AccountID: accountID,
		TenantID:  claims.TenantID,
		Scopes:    claims.Scopes,
	}
	if claims.IssuedAt != nil {
		decoded.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		decoded.ExpiresAt = claims.ExpiresAt.Time
	}
	return decoded, nil
}

// GenerateRefreshSecret draws a 384-bit random secret and returns its raw
// url-safe form together with the hash under which it is stored.
func (j *JWT) GenerateRefreshSecret() (string, string, error) {
	buf := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate refresh secret: %w", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	return raw, j.HashRefreshSecret(raw), nil
}

// HashRefreshSecret returns the sha256 hex digest used to store and look
// up refresh secrets.
func (j *JWT) HashRefreshSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
