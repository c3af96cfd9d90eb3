package identity_test

import (
	"context"
	"database/sql"
	"sync"

	"github.com/goliatone/go-identity"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockLogger implements identity.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// MockAccounts is a testify mock over the store contract. Only the methods
// a test arranges are callable; anything else panics via the embedded
// interface.
type MockAccounts struct {
	identity.Accounts
	mock.Mock
}

func (m *MockAccounts) FindByUsername(ctx context.Context, username string) (*identity.Account, error) {
	args := m.Called(ctx, username)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) FindByCredentials(ctx context.Context, username, password string) (*identity.Account, error) {
	args := m.Called(ctx, username, password)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) FindByClaims(ctx context.Context, claims *identity.TokenClaims) (*identity.Account, error) {
	args := m.Called(ctx, claims)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) Register(ctx context.Context, record *identity.Account) (*identity.Account, error) {
	args := m.Called(ctx, record)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) UpdateProfile(ctx context.Context, record *identity.Account, changes identity.ProfileChanges) (*identity.Account, error) {
	args := m.Called(ctx, record, changes)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) DeleteByClaims(ctx context.Context, claims *identity.TokenClaims) (*identity.Account, error) {
	args := m.Called(ctx, claims)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) RegisterTx(ctx context.Context, tx bun.IDB, record *identity.Account) (*identity.Account, error) {
	args := m.Called(ctx, tx, record)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

// MockRepositoryManager implements identity.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

func (m *MockRepositoryManager) Accounts() identity.Accounts {
	args := m.Called()
	accounts, _ := args.Get(0).(identity.Accounts)
	return accounts
}

func (m *MockRepositoryManager) ActivityLog() repository.Repository[*identity.ActivityRecord] {
	args := m.Called()
	repo, _ := args.Get(0).(repository.Repository[*identity.ActivityRecord])
	return repo
}

// memoryAccounts is an in-memory store with real credential semantics, used
// for the end-to-end flow tests.
type memoryAccounts struct {
	identity.Accounts
	mu      sync.Mutex
	records map[string]*identity.Account
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{
		records: map[string]*identity.Account{},
	}
}

func (s *memoryAccounts) FindByUsername(ctx context.Context, username string) (*identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[username]; ok {
		clone := *record
		return &clone, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (s *memoryAccounts) FindByCredentials(ctx context.Context, username, password string) (*identity.Account, error) {
	s.mu.Lock()
	record, ok := s.records[username]
	s.mu.Unlock()

	if !ok {
		return nil, repository.NewRecordNotFound()
	}

	if err := identity.ComparePasswordAndHash(password, record.PasswordHash); err != nil {
		return nil, repository.NewRecordNotFound()
	}

	clone := *record
	return &clone, nil
}

func (s *memoryAccounts) FindByClaims(ctx context.Context, claims *identity.TokenClaims) (*identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[claims.Username]
	if !ok || record.Fingerprint != claims.Fingerprint {
		return nil, repository.NewRecordNotFound()
	}

	clone := *record
	return &clone, nil
}

func (s *memoryAccounts) Register(ctx context.Context, record *identity.Account) (*identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.Username]; ok {
		return nil, identity.ErrUsernameTaken
	}

	clone := *record
	if clone.ID == uuid.Nil {
		clone.ID = uuid.New()
	}
	s.records[record.Username] = &clone

	copied := clone
	return &copied, nil
}

func (s *memoryAccounts) UpdateProfile(ctx context.Context, record *identity.Account, changes identity.ProfileChanges) (*identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[record.Username]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}

	if changes.Username != "" && changes.Username != stored.Username {
		if other, exists := s.records[changes.Username]; exists && other.ID != stored.ID {
			return nil, identity.ErrUsernameTaken
		}
		delete(s.records, stored.Username)
		stored.Username = changes.Username
		s.records[stored.Username] = stored
	}

	if changes.Bio != "" {
		stored.Bio = changes.Bio
	}

	clone := *stored
	return &clone, nil
}

func (s *memoryAccounts) DeleteByClaims(ctx context.Context, claims *identity.TokenClaims) (*identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[claims.Username]
	if !ok || record.Fingerprint != claims.Fingerprint {
		return nil, repository.NewRecordNotFound()
	}

	delete(s.records, claims.Username)
	clone := *record
	return &clone, nil
}

// capturingSink collects activity events for assertions.
type capturingSink struct {
	mu     sync.Mutex
	events []identity.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt identity.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) eventTypes() []identity.ActivityEventType {
	c.mu.Lock()
	defer c.mu.Unlock()

	types := make([]identity.ActivityEventType, 0, len(c.events))
	for _, evt := range c.events {
		types = append(types, evt.EventType)
	}
	return types
}

func newTestConfig() *identity.SimpleConfig {
	return &identity.SimpleConfig{
		SigningKey: "test-signing-key",
		Issuer:     "identity-test",
		Audience:   []string{"test-clients"},
	}
}
