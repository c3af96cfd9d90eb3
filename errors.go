package identity

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrUsernameTaken is returned when registering (or renaming to) a username
// that already belongs to a live account.
var ErrUsernameTaken = errors.New("username is already registered", errors.CategoryConflict).
	WithTextCode("USERNAME_TAKEN")

// ErrInvalidCredentials covers both an unknown username and a password
// mismatch; the two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid username or password", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrInvalidToken is returned when a token fails signature verification or
// its claims are structurally incomplete.
var ErrInvalidToken = errors.New("invalid session token", errors.CategoryAuth).
	WithTextCode("INVALID_TOKEN").
	WithCode(errors.CodeUnauthorized)

// ErrStaleToken is returned when a correctly signed token no longer matches
// a live account, either because the account is gone or because its
// credentials changed since issuance. Worded generically on purpose.
var ErrStaleToken = errors.New("session is no longer valid", errors.CategoryAuth).
	WithTextCode("STALE_TOKEN").
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their configured TTL. Only
// applies when the codec was configured with a non-zero expiration.
var ErrTokenExpired = errors.New("session token expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrConfirmationRequired gates account deletion; it is raised before the
// token is even parsed.
var ErrConfirmationRequired = errors.New("account removal requires confirmation", errors.CategoryValidation).
	WithTextCode("CONFIRMATION_REQUIRED")

// ErrImmutableClaimMutation indicates a claims decorator touched a protected
// claim before signing.
var ErrImmutableClaimMutation = errors.New("immutable claim mutated", errors.CategoryInternal).
	WithTextCode("IMMUTABLE_CLAIM_MUTATION")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrInvalidToken) ||
		strings.Contains(err.Error(), "token is malformed")
}
