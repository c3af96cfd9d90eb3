package identity_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountLifecycleIntegration(t *testing.T) {
	ctx := context.Background()

	store := newMemoryAccounts()
	sink := &capturingSink{}

	auther := identity.NewAuthenticator(store, newTestConfig()).
		WithLogger(nopLogger{}).
		WithActivitySink(sink)

	ops := identity.NewSessionOps(store, auther.TokenCodec()).
		WithLogger(nopLogger{}).
		WithActivitySink(sink)

	// register + login
	account, err := auther.Register(ctx, identity.RegisterPayload{
		Username: "alice",
		Password: "pw1",
		Bio:      "first of her name",
	})
	require.NoError(t, err)
	require.NotNil(t, account)

	token, err := auther.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// status resolves the live record
	info, err := ops.Status(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Username)
	assert.Equal(t, "first of her name", info.Bio)

	// rename; the old token is stranded, the fresh one works
	renamed, err := ops.Modify(ctx, token, identity.ProfileChanges{Username: "alicia"})
	require.NoError(t, err)
	assert.Equal(t, "alicia", renamed.Username)

	_, err = ops.Status(ctx, token)
	require.ErrorIs(t, err, identity.ErrStaleToken)

	info, err = ops.Status(ctx, renamed.Token)
	require.NoError(t, err)
	assert.Equal(t, "alicia", info.Username)

	// login still works with the original password under the new name
	token, err = auther.Login(ctx, "alicia", "pw1")
	require.NoError(t, err)

	// delete needs confirmation, then removes everything
	require.ErrorIs(t, ops.Delete(ctx, token, false), identity.ErrConfirmationRequired)
	require.NoError(t, ops.Delete(ctx, token, true))

	_, err = ops.Status(ctx, token)
	require.ErrorIs(t, err, identity.ErrStaleToken)

	_, err = auther.Login(ctx, "alicia", "pw1")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)

	types := sink.eventTypes()
	assert.Equal(t, []identity.ActivityEventType{
		identity.ActivityEventRegisterSuccess,
		identity.ActivityEventLoginSuccess,
		identity.ActivityEventProfileUpdated,
		identity.ActivityEventLoginSuccess,
		identity.ActivityEventAccountDeleted,
		identity.ActivityEventLoginFailure,
	}, types)
}
