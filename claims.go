package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims is the typed claims payload embedded in issued tokens. The
// username/fingerprint pair is the re-verifiable capability: it must match a
// live account exactly on every use.
type TokenClaims struct {
	jwt.RegisteredClaims
	Username    string         `json:"usr,omitempty"`
	Fingerprint string         `json:"cfp,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"` // extension payload
}

// ClaimsFor builds the canonical claims payload for an account.
func ClaimsFor(account *Account) *TokenClaims {
	if account == nil {
		return nil
	}

	return &TokenClaims{
		Username:    account.Username,
		Fingerprint: account.Fingerprint,
	}
}

// validateStructure rejects claims missing the identity-bearing fields.
// Signature verification alone does not make a token usable.
func (c *TokenClaims) validateStructure() error {
	if c == nil {
		return ErrInvalidToken
	}

	if c.Username == "" || c.Fingerprint == "" {
		return ErrInvalidToken
	}

	return nil
}

// Matches reports whether the claims still describe the given live account.
func (c *TokenClaims) Matches(account *Account) bool {
	if c == nil || account == nil {
		return false
	}
	return c.Username == account.Username && c.Fingerprint == account.Fingerprint
}

// IssuedTime returns the issued at time
func (c *TokenClaims) IssuedTime() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Expires returns the expiration time, zero when the token never expires.
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.New().String()
	}
}
