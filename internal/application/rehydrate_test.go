package application

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapperRestoresPersistedUser(t *testing.T) {
	t.Parallel()

	session, subs := newTestSession(t)
	subs.durable.values["userState"] = `{"isLoggedIn":true,"accountId":7,"firstName":"Ada"}`

	results := NewBootstrapper(session, discardLogger()).Run(context.Background())
	require.Len(t, results, 3)

	user := mustStore(t, session, domain.AccountKindUser).Snapshot()
	assert.True(t, user.IsLoggedIn)
	require.NotNil(t, user.AccountID)
	assert.Equal(t, domain.AccountID(7), *user.AccountID)
	assert.Equal(t, "Ada", user.FirstName)

	assert.Equal(t, OutcomeRestored, results[0].Outcome)
	assert.Equal(t, OutcomeAbsent, results[1].Outcome)
	assert.Equal(t, OutcomeAbsent, results[2].Outcome)

	writes, deletes := subs.durable.counts()
	assert.Zero(t, writes)
	assert.Zero(t, deletes)
}

func TestBootstrapperLeavesAbsentAdminLoggedOut(t *testing.T) {
	t.Parallel()

	session, subs := newTestSession(t)
	subs.cookie.values["adminToken"] = "null"

	results := NewBootstrapper(session, discardLogger()).Run(context.Background())

	assert.Equal(t, OutcomeAbsent, results[2].Outcome)
	assert.True(t, mustStore(t, session, domain.AccountKindAdmin).Snapshot().IsDefault())
}

func TestBootstrapperDegradesOnCorruptState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		readErr    error
		wantReason string
	}{
		{name: "malformed", raw: "{not json", wantReason: string(DecodeMalformed)},
		{name: "missing discriminator", raw: `{"isLoggedIn":true}`, wantReason: string(DecodeMissingDiscriminator)},
		{name: "kind mismatch", raw: `{"isLoggedIn":true,"accountId":1,"accountKind":"admin"}`, wantReason: "kind_mismatch"},
		{name: "read failure", readErr: errors.New("storage disabled"), wantReason: "read_failed"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			session, subs := newTestSession(t)
			subs.durable.values["userState"] = tc.raw
			subs.durable.readErr = tc.readErr
			store := mustStore(t, session, domain.AccountKindUser)

			var result RehydrationResult
			require.NotPanics(t, func() {
				result = NewBootstrapper(session, discardLogger()).RehydrateKind(context.Background(), store)
			})

			assert.Equal(t, OutcomeDegraded, result.Outcome)
			assert.Equal(t, tc.wantReason, result.Reason)
			assert.True(t, store.Snapshot().IsDefault())
		})
	}
}

func TestBootstrapperIsIdempotent(t *testing.T) {
	t.Parallel()

	session, subs := newTestSession(t)
	subs.cookie.values["agentToken"] = `{"isLoggedIn":true,"accountId":12,"firstName":"Bob","tokenRef":"agentToken"}`
	store := mustStore(t, session, domain.AccountKindAgent)
	bootstrapper := NewBootstrapper(session, discardLogger())

	first := bootstrapper.RehydrateKind(context.Background(), store)
	once := store.Snapshot()
	second := bootstrapper.RehydrateKind(context.Background(), store)

	assert.Equal(t, OutcomeRestored, first.Outcome)
	assert.Equal(t, OutcomeRestored, second.Outcome)
	assert.Equal(t, once, store.Snapshot())
}

func TestBootstrapperRunsOnce(t *testing.T) {
	t.Parallel()

	session, subs := newTestSession(t)
	subs.durable.values["userState"] = `{"isLoggedIn":true,"accountId":7}`
	bootstrapper := NewBootstrapper(session, discardLogger())

	first := bootstrapper.Run(context.Background())
	store := mustStore(t, session, domain.AccountKindUser)
	require.NoError(t, store.Logout(context.Background()))

	subs.durable.values["userState"] = `{"isLoggedIn":true,"accountId":8}`
	second := bootstrapper.Run(context.Background())

	assert.Equal(t, first, second)
	assert.True(t, store.Snapshot().IsDefault())
}
