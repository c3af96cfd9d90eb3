package identity

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Authenticator holds methods to establish an identity: registering a new
// account and exchanging credentials for a token.
type Authenticator interface {
	Register(ctx context.Context, payload RegisterPayload) (*Account, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// SessionOperator exposes the token-gated account operations. Every call
// re-resolves the token claims against the live account record.
type SessionOperator interface {
	Status(ctx context.Context, token string) (*SessionInfo, error)
	Modify(ctx context.Context, token string, changes ProfileChanges) (*SessionInfo, error)
	Delete(ctx context.Context, token string, confirm bool) error
}

// TokenCodec serializes claims into signed opaque tokens and back. The codec
// never touches storage; matching decoded claims against a live account is
// the caller's job.
type TokenCodec interface {
	Encode(claims *TokenClaims) (string, error)
	Decode(token string) (*TokenClaims, error)
	Mint(ctx context.Context, account *Account) (string, error)
}

// RegisterPayload carries the attributes of a new account.
type RegisterPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Bio      string `json:"bio,omitempty"`
}

// ProfileChanges carries optional field overrides for Modify. Empty fields
// are left unchanged.
type ProfileChanges struct {
	Username string `json:"username,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// SessionInfo is the outcome of a token-gated read or update: the resolved
// account attributes plus the token the caller should keep using. Modify
// returns a freshly minted token here when the claims changed.
type SessionInfo struct {
	Username string `json:"username"`
	Bio      string `json:"bio,omitempty"`
	Token    string `json:"token"`
}

// Config holds identity options. Construct once at startup and inject; the
// signing key is never rotated within the process lifetime.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
