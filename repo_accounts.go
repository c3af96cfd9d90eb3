package identity

import (
	"context"
	"database/sql"
	"strings"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DeleteAccountSQL removes an account in a single credential-qualified
// statement, so verification and removal cannot race.
var DeleteAccountSQL = `UPDATE "accounts" AS "acct"
SET
	"deleted_at" = CURRENT_TIMESTAMP
WHERE
	"acct"."deleted_at" IS NULL
AND (
	"acct"."username" = ?
)
AND (
	"acct"."credential_fingerprint" = ?
) RETURNING *;`

// Accounts is the credential store contract. All read paths that are about
// to authorize an action resolve records through the credential-qualified
// lookups, never by username alone.
type Accounts interface {
	repository.Repository[*Account]

	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Account, error)

	FindByCredentials(ctx context.Context, username, password string) (*Account, error)
	FindByCredentialsTx(ctx context.Context, tx bun.IDB, username, password string) (*Account, error)

	FindByClaims(ctx context.Context, claims *TokenClaims) (*Account, error)
	FindByClaimsTx(ctx context.Context, tx bun.IDB, claims *TokenClaims) (*Account, error)

	Register(ctx context.Context, record *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)

	UpdateProfile(ctx context.Context, record *Account, changes ProfileChanges) (*Account, error)

	DeleteByClaims(ctx context.Context, claims *TokenClaims) (*Account, error)
	DeleteByClaimsTx(ctx context.Context, tx bun.IDB, claims *TokenClaims) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) FindByUsername(ctx context.Context, username string) (*Account, error) {
	return a.FindByUsernameTx(ctx, a.db, username)
}

func (a *accounts) FindByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Account, error) {
	username = strings.TrimSpace(username)

	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"username": username,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) FindByCredentials(ctx context.Context, username, password string) (*Account, error) {
	return a.FindByCredentialsTx(ctx, a.db, username, password)
}

// FindByCredentialsTx resolves an account by username and cleartext
// password. An unknown username and a password mismatch produce the same
// not-found error so callers cannot tell which one happened.
func (a *accounts) FindByCredentialsTx(ctx context.Context, tx bun.IDB, username, password string) (*Account, error) {
	record, err := a.FindByUsernameTx(ctx, tx, username)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"username": username,
				})
		}
		return nil, err
	}

	if err := ComparePasswordAndHash(password, record.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"username": username,
				})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to compare credentials")
	}

	return record, nil
}

func (a *accounts) FindByClaims(ctx context.Context, claims *TokenClaims) (*Account, error) {
	return a.FindByClaimsTx(ctx, a.db, claims)
}

// FindByClaimsTx resolves an account by the exact username/fingerprint pair
// embedded in a token. A miss covers both "never existed" and "credential
// changed since issuance".
func (a *accounts) FindByClaimsTx(ctx context.Context, tx bun.IDB, claims *TokenClaims) (*Account, error) {
	if claims == nil {
		return nil, errors.New("claims are required", errors.CategoryBadInput)
	}

	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", claims.Username).
		Where("?TableAlias.credential_fingerprint = ?", claims.Fingerprint).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"username": claims.Username,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Register(ctx context.Context, record *Account) (*Account, error) {
	var created *Account
	err := a.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		created, err = a.RegisterTx(ctx, tx, record)
		return err
	})
	return created, err
}

// RegisterTx inserts a new account after checking username availability.
// The check and insert share the caller's transaction.
func (a *accounts) RegisterTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	if record == nil {
		return nil, errors.New("account is required", errors.CategoryBadInput)
	}

	existing, err := a.FindByUsernameTx(ctx, tx, record.Username)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, err
	}

	if existing != nil {
		return nil, ErrUsernameTaken
	}

	prepareAccountDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create account")
	}

	return created, nil
}

// UpdateProfile applies the provided field overrides and persists the
// record. A rename re-checks username availability inside the same
// transaction and fails with ErrUsernameTaken on a collision.
func (a *accounts) UpdateProfile(ctx context.Context, record *Account, changes ProfileChanges) (*Account, error) {
	if record == nil {
		return nil, errors.New("account is required", errors.CategoryBadInput)
	}

	var updated *Account
	err := a.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if changes.Username != "" && changes.Username != record.Username {
			existing, err := a.FindByUsernameTx(ctx, tx, changes.Username)
			if err != nil && !repository.IsRecordNotFound(err) {
				return err
			}
			if existing != nil && existing.ID != record.ID {
				return ErrUsernameTaken
			}
			record.Username = strings.TrimSpace(changes.Username)
		}

		if changes.Bio != "" {
			record.Bio = changes.Bio
		}

		var err error
		updated, err = a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(record.ID.String()))
		return err
	})

	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (a *accounts) DeleteByClaims(ctx context.Context, claims *TokenClaims) (*Account, error) {
	return a.DeleteByClaimsTx(ctx, a.db, claims)
}

// DeleteByClaimsTx is the atomic find-and-remove primitive: a single
// statement qualified by username and credential fingerprint.
func (a *accounts) DeleteByClaimsTx(ctx context.Context, tx bun.IDB, claims *TokenClaims) (*Account, error) {
	if claims == nil {
		return nil, errors.New("claims are required", errors.CategoryBadInput)
	}

	res, err := a.Repository.RawTx(ctx, tx, DeleteAccountSQL, claims.Username, claims.Fingerprint)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"username": claims.Username,
			})
	}

	return res[0], nil
}
