package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyshelf/storyshelf/internal/client/database"
	"github.com/storyshelf/storyshelf/internal/client/platform"
	"github.com/storyshelf/storyshelf/internal/common"
	"github.com/storyshelf/storyshelf/internal/cryptox"
	"github.com/storyshelf/storyshelf/internal/netx"
)

type pushFixture struct {
	h        *database.Handle
	api      *fakeClient
	prompter *fakePrompter
	platform *platform.Platform
	online   *fakeOnline
	svc      PushService
}

func newPushFixture(t *testing.T, allow bool) *pushFixture {
	t.Helper()
	priv, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)

	f := &pushFixture{
		h:        newHandle(t),
		api:      newFakeClient(),
		prompter: &fakePrompter{answer: allow},
		online:   &fakeOnline{online: true},
	}
	f.api.vapidKey = cryptox.EncodeKey(priv.PublicKey().Bytes())
	f.platform = platform.New(f.h, fakeWorker{}, f.prompter, "http://127.0.0.1:8787", nil)
	f.svc = NewPushService(f.api, f.platform, NewMetadataTokenSource(f.h), f.h, f.online, "", nil)
	return f
}

func (f *pushFixture) state(t *testing.T) PushState {
	t.Helper()
	st, err := f.svc.State(context.Background())
	require.NoError(t, err)
	return st
}

func TestPush_RequiresSessionBeforeAnything(t *testing.T) {
	ctx := context.Background()
	f := newPushFixture(t, true)

	_, err := f.svc.Subscribe(ctx)
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.ErrorIs(t, f.svc.Unsubscribe(ctx), ErrUnauthenticated)

	assert.Empty(t, f.api.networkCalls())
	assert.Zero(t, f.prompter.calls)
	assert.Equal(t, Unregistered, f.state(t))
}

func TestPush_OfflineFailsFast(t *testing.T) {
	ctx := context.Background()
	f := newPushFixture(t, true)
	signIn(t, f.h)
	f.online.online = false

	_, err := f.svc.Subscribe(ctx)
	require.ErrorIs(t, err, ErrOffline)
	assert.Empty(t, f.api.networkCalls())
	assert.Zero(t, f.prompter.calls)
}

func TestPush_DeniedCreatesNothing(t *testing.T) {
	ctx := context.Background()
	f := newPushFixture(t, false)
	signIn(t, f.h)

	_, err := f.svc.Subscribe(ctx)
	require.ErrorIs(t, err, ErrPermissionDenied)

	sub, err := f.svc.CheckSubscription(ctx)
	require.NoError(t, err)
	assert.Nil(t, sub)
	assert.Empty(t, f.api.networkCalls())
	assert.Equal(t, Unregistered, f.state(t))

	// the refusal holds; no second prompt
	_, err = f.svc.Subscribe(ctx)
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 1, f.prompter.calls)
}

func TestPush_SubscribeRegistersWithServer(t *testing.T) {
	ctx := context.Background()
	f := newPushFixture(t, true)
	signIn(t, f.h)

	sub, err := f.svc.Subscribe(ctx)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, FullySubscribed, f.state(t))

	wire, ok := f.api.registered[sub.Endpoint]
	require.True(t, ok)
	assert.Equal(t, sub.Keys, wire.Keys)
	assert.Equal(t, sub.Endpoint, getMeta(t, f.h, common.PushRegisteredMetadataKey))

	// subscribing again reuses the device subscription
	again, err := f.svc.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, sub.Endpoint, again.Endpoint)
	assert.Equal(t, 1, f.prompter.calls)
	assert.Equal(t, 1, f.api.vapidCalls)
}

func TestPush_ServerRejectionKeepsLocalSubscription(t *testing.T) {
	ctx := context.Background()
	f := newPushFixture(t, true)
	signIn(t, f.h)
	f.api.subscribeErr = &netx.StatusError{Status: 400, Message: "\"endpoint\" must be a valid uri"}

	sub, err := f.svc.Subscribe(ctx)
	var rerr *ServerRegistrationError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 400, rerr.Status)
	assert.Contains(t, rerr.Message, "valid uri")
	require.NotNil(t, sub)

	local, err := f.svc.CheckSubscription(ctx)
	require.NoError(t, err)
	require.NotNil(t, local)
	assert.Equal(t, sub.Endpoint, local.Endpoint)
	assert.Equal(t, LocallySubscribed, f.state(t))

	f.api.subscribeErr = nil
	retried, err := f.svc.RegisterWithServer(ctx)
	require.NoError(t, err)
	assert.Equal(t, sub.Endpoint, retried.Endpoint)
	assert.Equal(t, FullySubscribed, f.state(t))
	assert.Equal(t, 1, f.prompter.calls)
}

func TestPush_RegisterWithServerWithoutSubscription(t *testing.T) {
	f := newPushFixture(t, true)
	signIn(t, f.h)

	_, err := f.svc.RegisterWithServer(context.Background())
	require.ErrorIs(t, err, ErrNotSubscribed)
}

func TestPush_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	f := newPushFixture(t, true)
	signIn(t, f.h)

	sub, err := f.svc.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.Unsubscribe(ctx))
	local, err := f.svc.CheckSubscription(ctx)
	require.NoError(t, err)
	assert.Nil(t, local)
	assert.NotContains(t, f.api.registered, sub.Endpoint)
	assert.Empty(t, getMeta(t, f.h, common.PushRegisteredMetadataKey))
	assert.Empty(t, getMeta(t, f.h, common.PushPendingDeleteMetadataKey))

	// permission outlives the subscription
	assert.Equal(t, PermissionGranted, f.state(t))

	// nothing to tear down
	require.NoError(t, f.svc.Unsubscribe(ctx))
}

func TestPush_PartialUnsubscribe(t *testing.T) {
	ctx := context.Background()
	f := newPushFixture(t, true)
	signIn(t, f.h)

	sub, err := f.svc.Subscribe(ctx)
	require.NoError(t, err)

	f.api.unsubscribeErr = errors.New("connection reset by peer")
	err = f.svc.Unsubscribe(ctx)
	var perr *PartialUnsubscribeError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, sub.Endpoint, perr.Endpoint)

	local, err := f.svc.CheckSubscription(ctx)
	require.NoError(t, err)
	assert.Nil(t, local)

	pending, err := f.svc.PendingRemoteDeletion(ctx)
	require.NoError(t, err)
	assert.Equal(t, sub.Endpoint, pending)

	require.ErrorAs(t, f.svc.RetryRemoteDeletion(ctx), &perr)

	f.api.unsubscribeErr = nil
	require.NoError(t, f.svc.RetryRemoteDeletion(ctx))
	pending, err = f.svc.PendingRemoteDeletion(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.NotContains(t, f.api.registered, sub.Endpoint)

	// no pending deletion: a retry is a no-op
	calls := len(f.api.networkCalls())
	require.NoError(t, f.svc.RetryRemoteDeletion(ctx))
	assert.Len(t, f.api.networkCalls(), calls)
}

func TestPush_UnsubscribeStillDeletesRemoteWhenBookkeepingFails(t *testing.T) {
	ctx := context.Background()
	f := newPushFixture(t, true)
	signIn(t, f.h)

	sub, err := f.svc.Subscribe(ctx)
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO metadata").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM metadata").WillReturnError(errors.New("disk I/O error"))

	svc := NewPushService(f.api, f.platform, NewMetadataTokenSource(f.h), staticOpener{db: db}, f.online, "", nil)
	f.api.unsubscribeErr = errors.New("connection reset by peer")

	err = svc.Unsubscribe(ctx)
	var perr *PartialUnsubscribeError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, sub.Endpoint, perr.Endpoint)
	assert.Contains(t, f.api.networkCalls(), "unsubscribe")

	local, err := f.svc.CheckSubscription(ctx)
	require.NoError(t, err)
	assert.Nil(t, local)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPush_UnsubscribeKeepsEverythingWhenPendingMarkerFails(t *testing.T) {
	ctx := context.Background()
	f := newPushFixture(t, true)
	signIn(t, f.h)

	sub, err := f.svc.Subscribe(ctx)
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	engineErr := errors.New("database is locked")
	mock.ExpectExec("INSERT INTO metadata").WillReturnError(engineErr)

	svc := NewPushService(f.api, f.platform, NewMetadataTokenSource(f.h), staticOpener{db: db}, f.online, "", nil)
	calls := len(f.api.networkCalls())

	err = svc.Unsubscribe(ctx)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "record pending deletion", se.Op)
	assert.ErrorIs(t, err, engineErr)
	assert.Len(t, f.api.networkCalls(), calls)

	local, err := f.svc.CheckSubscription(ctx)
	require.NoError(t, err)
	require.NotNil(t, local)
	assert.Equal(t, sub.Endpoint, local.Endpoint)
	assert.Equal(t, FullySubscribed, f.state(t))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPush_FixedKeySkipsAPI(t *testing.T) {
	ctx := context.Background()
	f := newPushFixture(t, true)
	signIn(t, f.h)
	svc := NewPushService(f.api, f.platform, NewMetadataTokenSource(f.h), f.h, f.online, f.api.vapidKey, nil)

	_, err := svc.Subscribe(ctx)
	require.NoError(t, err)
	assert.Zero(t, f.api.vapidCalls)
}

func TestPush_BadServerKey(t *testing.T) {
	ctx := context.Background()
	f := newPushFixture(t, true)
	signIn(t, f.h)
	f.api.vapidKey = "bm90LWEta2V5"

	_, err := f.svc.Subscribe(ctx)
	require.Error(t, err)
	sub, err := f.svc.CheckSubscription(ctx)
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestPushState_String(t *testing.T) {
	assert.Equal(t, "not subscribed", Unregistered.String())
	assert.Equal(t, "subscribed", FullySubscribed.String())
	assert.Equal(t, "subscribed on this device only", LocallySubscribed.String())
}
