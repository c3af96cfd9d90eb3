package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// Auther orchestrates registration and login against the accounts store.
type Auther struct {
	accounts     Accounts
	logger       Logger
	codec        TokenCodec
	activitySink ActivitySink
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(accounts Accounts, opts Config) *Auther {
	codec := NewTokenCodec(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		accounts:     accounts,
		logger:       defLogger{},
		codec:        codec,
		activitySink: noopActivitySink{},
	}
}

// WithLogger replaces the logger, propagating it into the codec when the
// codec is the default implementation.
func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
		if codec, ok := s.codec.(*TokenCodecImpl); ok {
			codec.WithLogger(logger)
		}
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenCodec replaces the default codec, e.g. to share one instance
// with SessionOps.
func (s *Auther) WithTokenCodec(codec TokenCodec) *Auther {
	if codec != nil {
		s.codec = codec
	}
	return s
}

// TokenCodec returns the TokenCodec instance used by this Authenticator
func (s *Auther) TokenCodec() TokenCodec {
	return s.codec
}

// Register creates a new account. No token is issued: registration and
// login are separate steps.
func (s *Auther) Register(ctx context.Context, payload RegisterPayload) (*Account, error) {
	if err := validateRegisterPayload(payload); err != nil {
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"username": payload.Username,
			"error":    err.Error(),
		})
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid registration payload")
	}

	if existing, err := s.accounts.FindByUsername(ctx, payload.Username); err != nil && !repository.IsRecordNotFound(err) {
		s.logger.Error("Register username lookup error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check username availability")
	} else if existing != nil {
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"username": payload.Username,
			"error":    ErrUsernameTaken.Message,
		})
		return nil, ErrUsernameTaken
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		s.logger.Error("Register password hash error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	record := &Account{
		Username: payload.Username,
		Bio:      payload.Bio,
	}
	record.SetCredential(hash)

	account, err := s.accounts.Register(ctx, record)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"username": payload.Username,
			"error":    err.Error(),
		})
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventRegisterSuccess, s.actorFromAccount(account), account.ID.String(), map[string]any{
		"username": account.Username,
	})

	return account, nil
}

// Login verifies the credentials and mints a token bound to the stored
// credential value.
func (s *Auther) Login(ctx context.Context, username, password string) (string, error) {
	account, err := s.accounts.FindByCredentials(ctx, username, password)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
				"username": username,
				"error":    ErrInvalidCredentials.Message,
			})
			return "", ErrInvalidCredentials
		}

		s.logger.Error("Login credential lookup error", "error", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to verify credentials")
	}

	token, err := s.codec.Mint(ctx, account)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromAccount(account), account.ID.String(), map[string]any{
			"username": username,
			"error":    err.Error(),
		})
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromAccount(account), account.ID.String(), map[string]any{
		"username": username,
	})

	return token, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, accountID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		AccountID: accountID,
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

func (s *Auther) actorFromAccount(account *Account) ActorRef {
	if account == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   account.ID.String(),
		Type: "user",
	}
}

func validateRegisterPayload(payload RegisterPayload) error {
	return validation.ValidateStruct(&payload,
		validation.Field(&payload.Username, validation.Required, validation.Length(2, 64)),
		validation.Field(&payload.Password, validation.Required, validation.Length(1, 128)),
		validation.Field(&payload.Bio, validation.Length(0, 512)),
	)
}

var _ Authenticator = (*Auther)(nil)
