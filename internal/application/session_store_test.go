package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreStartsLoggedOut(t *testing.T) {
	t.Parallel()

	session, _ := newTestSession(t)
	for _, store := range session.Stores() {
		assert.True(t, store.Snapshot().IsDefault(), "kind %s", store.Kind())
	}
}

func TestSessionStoreLoginCopiesFieldsAndPersists(t *testing.T) {
	t.Parallel()

	session, subs := newTestSession(t)
	store := mustStore(t, session, domain.AccountKindUser)

	fields := domain.Fields{
		AccountID:    domain.NewAccountID(7),
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		PhoneNumber:  "0600000000",
		IsSubscribed: true,
	}
	require.NoError(t, store.Login(context.Background(), fields))

	got := store.Snapshot()
	assert.True(t, got.IsLoggedIn)
	assert.Equal(t, domain.AccountKindUser, got.Kind)
	assert.Equal(t, fields, got.Fields())

	raw, err := subs.durable.Read(context.Background(), "userState")
	require.NoError(t, err)
	decoded := DecodeSnapshot(raw, true)
	require.True(t, decoded.OK())
	assert.Equal(t, got, decoded.Snapshot)
}

func TestSessionStoreLoginRequiresAccountID(t *testing.T) {
	t.Parallel()

	session, subs := newTestSession(t)
	store := mustStore(t, session, domain.AccountKindAgent)

	err := store.Login(context.Background(), domain.Fields{FirstName: "Nobody"})
	require.ErrorIs(t, err, domain.ErrMissingAccountID)
	assert.True(t, store.Snapshot().IsDefault())

	writes, _ := subs.cookie.counts()
	assert.Zero(t, writes)
}

func TestSessionStoreLoginKeepsStateWhenPersistFails(t *testing.T) {
	t.Parallel()

	session, subs := newTestSession(t)
	subs.durable.writeErr = errors.New("quota exceeded")
	store := mustStore(t, session, domain.AccountKindUser)

	err := store.Login(context.Background(), domain.Fields{AccountID: domain.NewAccountID(1)})
	require.ErrorContains(t, err, "quota exceeded")
	assert.True(t, store.Snapshot().IsLoggedIn)
}

func TestSessionStoreLogoutResetsAndDeletesPersistedCopy(t *testing.T) {
	t.Parallel()

	session, subs := newTestSession(t)
	store := mustStore(t, session, domain.AccountKindAdmin)

	require.NoError(t, store.Login(context.Background(), domain.Fields{
		AccountID: domain.NewAccountID(3),
		FirstName: "Root",
		TokenRef:  "adminToken",
	}))
	require.NoError(t, store.Logout(context.Background()))

	assert.True(t, store.Snapshot().IsDefault())
	assert.False(t, store.Snapshot().IsLoggedIn)

	_, err := subs.cookie.Read(context.Background(), "adminToken")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestSessionStoreUpdateMergesWithoutPersisting(t *testing.T) {
	t.Parallel()

	session, subs := newTestSession(t)
	store := mustStore(t, session, domain.AccountKindUser)
	require.NoError(t, store.Login(context.Background(), domain.Fields{
		AccountID: domain.NewAccountID(7),
		FirstName: "Ada",
		Email:     "ada@example.com",
	}))
	before := store.Snapshot()
	writesBefore, deletesBefore := subs.durable.counts()

	require.NoError(t, store.Update(context.Background(), domain.Patch{IsSubscribed: boolPtr(true)}))

	after := store.Snapshot()
	assert.True(t, after.IsSubscribed)
	before.IsSubscribed = true
	assert.Equal(t, before, after)

	writesAfter, deletesAfter := subs.durable.counts()
	assert.Equal(t, writesBefore, writesAfter)
	assert.Equal(t, deletesBefore, deletesAfter)
}

func TestSessionStoreUpdateRejectedWhenLoggedOut(t *testing.T) {
	t.Parallel()

	session, _ := newTestSession(t)
	store := mustStore(t, session, domain.AccountKindUser)

	err := store.Update(context.Background(), domain.Patch{FirstName: strPtr("Stale")})
	require.ErrorIs(t, err, domain.ErrNotLoggedIn)
	assert.True(t, store.Snapshot().IsDefault())
}

func TestSessionStoreNotifiesSubscribers(t *testing.T) {
	t.Parallel()

	session, _ := newTestSession(t)
	store := mustStore(t, session, domain.AccountKindUser)

	var seen []bool
	unsubscribe := store.Subscribe(func(s domain.Snapshot) {
		seen = append(seen, s.IsLoggedIn)
	})

	require.NoError(t, store.Login(context.Background(), domain.Fields{AccountID: domain.NewAccountID(1)}))
	require.NoError(t, store.Logout(context.Background()))
	unsubscribe()
	unsubscribe()
	require.NoError(t, store.Login(context.Background(), domain.Fields{AccountID: domain.NewAccountID(2)}))

	assert.Equal(t, []bool{true, false}, seen)
}

func TestSessionStoreConcurrentLoginsAreAtomic(t *testing.T) {
	t.Parallel()

	session, _ := newTestSession(t)
	store := mustStore(t, session, domain.AccountKindUser)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Login(context.Background(), domain.Fields{
				AccountID: domain.NewAccountID(int64(i)),
				FirstName: fmt.Sprintf("first-%d", i),
				LastName:  fmt.Sprintf("last-%d", i),
			})
		}(i)
	}
	wg.Wait()

	got := store.Snapshot()
	require.NotNil(t, got.AccountID)
	id := int64(*got.AccountID)
	assert.Equal(t, fmt.Sprintf("first-%d", id), got.FirstName)
	assert.Equal(t, fmt.Sprintf("last-%d", id), got.LastName)
}

func TestSessionStoreLogoutDuringLoginWriteLeavesNoPersistedCopy(t *testing.T) {
	t.Parallel()

	substrate := newGatedSubstrate()
	store, err := NewSessionStore(StoreConfig{
		Kind:      domain.AccountKindUser,
		Key:       "userState",
		Substrate: substrate,
		Logger:    discardLogger(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	loginDone := make(chan error, 1)
	go func() {
		loginDone <- store.Login(ctx, domain.Fields{AccountID: domain.NewAccountID(7)})
	}()
	<-substrate.writing

	logoutDone := make(chan error, 1)
	go func() {
		logoutDone <- store.Logout(ctx)
	}()

	select {
	case <-logoutDone:
		t.Fatal("logout finished while login was still persisting")
	case <-time.After(20 * time.Millisecond):
	}

	close(substrate.release)
	require.NoError(t, <-loginDone)
	require.NoError(t, <-logoutDone)

	assert.True(t, store.Snapshot().IsDefault())
	_, err = substrate.Read(ctx, "userState")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	reloaded, err := NewSessionStore(StoreConfig{
		Kind:      domain.AccountKindUser,
		Key:       "userState",
		Substrate: substrate,
		Logger:    discardLogger(),
	})
	require.NoError(t, err)
	result := (&Bootstrapper{logger: discardLogger()}).RehydrateKind(ctx, reloaded)
	assert.Equal(t, OutcomeAbsent, result.Outcome)
	assert.True(t, reloaded.Snapshot().IsDefault())
}

func TestNewSessionRejectsDuplicateKinds(t *testing.T) {
	t.Parallel()

	substrate := newInMemorySubstrate()
	_, err := NewSession([]KindBinding{
		{Kind: domain.AccountKindUser, Key: "a", Substrate: substrate, LoginRoute: "/auth/login"},
		{Kind: domain.AccountKindUser, Key: "b", Substrate: substrate, LoginRoute: "/auth/login"},
	}, discardLogger())
	require.ErrorContains(t, err, "duplicate session binding")
}
