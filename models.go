package identity

import (
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the identity record. Username is the public unique key;
// PasswordHash and its derived fingerprint are the credential material that
// issued tokens bind to.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acct"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string         `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash  string         `bun:"password_hash,notnull" json:"password_hash,omitempty"`
	Fingerprint   string         `bun:"credential_fingerprint,notnull" json:"credential_fingerprint,omitempty"`
	Bio           string         `bun:"bio" json:"bio,omitempty"`
	Metadata      map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// SetCredential stores the bcrypt hash and keeps the fingerprint column in
// sync. The fingerprint must never be written independently of the hash.
func (a *Account) SetCredential(passwordHash string) *Account {
	a.PasswordHash = passwordHash
	a.Fingerprint = CredentialFingerprint(passwordHash)
	return a
}

// AddMetadata will append information to a metadata attribute
func (a *Account) AddMetadata(key string, val any) *Account {
	if a.Metadata == nil {
		a.Metadata = make(map[string]any)
	}
	a.Metadata[key] = val
	return a
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.Fingerprint == "" && record.PasswordHash != "" {
		record.Fingerprint = CredentialFingerprint(record.PasswordHash)
	}

	if record.ID == uuid.Nil {
		if id, err := hashid.NewUUID(record.Username); err == nil {
			record.ID = id
		} else {
			record.ID = uuid.New()
		}
	}
}

// ActivityRecord persists a single auth event in the activity log table.
type ActivityRecord struct {
	bun.BaseModel `bun:"table:activity_log,alias:actl"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	EventType     string         `bun:"event_type,notnull" json:"event_type,omitempty"`
	ActorID       string         `bun:"actor_id" json:"actor_id,omitempty"`
	ActorType     string         `bun:"actor_type" json:"actor_type,omitempty"`
	AccountID     string         `bun:"account_id" json:"account_id,omitempty"`
	Metadata      map[string]any `bun:"metadata" json:"metadata,omitempty"`
	OccurredAt    *time.Time     `bun:"occurred_at,nullzero" json:"occurred_at,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
