package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// SessionOps orchestrates the token-gated operations. Each call decodes the
// supplied token and re-resolves its claims against the live account record;
// nothing is trusted from the token beyond what storage confirms.
type SessionOps struct {
	accounts     Accounts
	codec        TokenCodec
	logger       Logger
	activitySink ActivitySink
}

func NewSessionOps(accounts Accounts, codec TokenCodec) *SessionOps {
	return &SessionOps{
		accounts:     accounts,
		codec:        codec,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *SessionOps) WithLogger(logger Logger) *SessionOps {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting session events.
func (s *SessionOps) WithActivitySink(sink ActivitySink) *SessionOps {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// Status resolves the token against the live store and echoes the account
// attributes plus the same token. Read-only and idempotent.
func (s *SessionOps) Status(ctx context.Context, token string) (*SessionInfo, error) {
	account, _, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	return &SessionInfo{
		Username: account.Username,
		Bio:      account.Bio,
		Token:    token,
	}, nil
}

// Modify applies the provided field overrides to the resolved account and
// mints a replacement token. The old token stays usable only if the
// username did not change; callers should switch to the returned token.
func (s *SessionOps) Modify(ctx context.Context, token string, changes ProfileChanges) (*SessionInfo, error) {
	if err := validateProfileChanges(changes); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid profile changes")
	}

	account, _, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	updated, err := s.accounts.UpdateProfile(ctx, account, changes)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		s.logger.Error("Modify update error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update account")
	}

	fresh, err := s.codec.Mint(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.emitSessionEvent(ctx, ActivityEventProfileUpdated, updated, map[string]any{
		"username": updated.Username,
	})

	return &SessionInfo{
		Username: updated.Username,
		Bio:      updated.Bio,
		Token:    fresh,
	}, nil
}

// Delete removes the resolved account. The confirmation flag is checked
// before the token is parsed: an unconfirmed delete never decodes anything.
// Removal itself is a single atomic credential-qualified delete.
func (s *SessionOps) Delete(ctx context.Context, token string, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}

	claims, err := s.codec.Decode(token)
	if err != nil {
		return err
	}

	removed, err := s.accounts.DeleteByClaims(ctx, claims)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrStaleToken
		}
		s.logger.Error("Delete store error", "error", err)
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete account")
	}

	s.emitSessionEvent(ctx, ActivityEventAccountDeleted, removed, map[string]any{
		"username": removed.Username,
	})

	return nil
}

// resolve is the shared preamble: decode the token, then re-resolve the
// claims against current store state.
func (s *SessionOps) resolve(ctx context.Context, token string) (*Account, *TokenClaims, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return nil, nil, err
	}

	account, err := s.accounts.FindByClaims(ctx, claims)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil, ErrStaleToken
		}
		s.logger.Error("session claims lookup error", "error", err)
		return nil, nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve session")
	}

	return account, claims, nil
}

func (s *SessionOps) emitSessionEvent(ctx context.Context, eventType ActivityEventType, account *Account, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     ActorRef{ID: account.ID.String(), Type: "user"},
		AccountID: account.ID.String(),
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func validateProfileChanges(changes ProfileChanges) error {
	return validation.ValidateStruct(&changes,
		validation.Field(&changes.Username, validation.Length(2, 64)),
		validation.Field(&changes.Bio, validation.Length(0, 512)),
	)
}

var _ SessionOperator = (*SessionOps)(nil)
