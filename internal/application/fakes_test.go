package application

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/stretchr/testify/require"
)

type inMemorySubstrate struct {
	mu       sync.Mutex
	values   map[string]string
	writes   int
	deletes  int
	readErr  error
	writeErr error
}

func newInMemorySubstrate() *inMemorySubstrate {
	return &inMemorySubstrate{values: map[string]string{}}
}

func (s *inMemorySubstrate) Read(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return "", s.readErr
	}
	value, ok := s.values[key]
	if !ok {
		return "", domain.ErrSnapshotNotFound
	}
	return value, nil
}

func (s *inMemorySubstrate) Write(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes++
	s.values[key] = value
	return nil
}

func (s *inMemorySubstrate) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes++
	delete(s.values, key)
	return nil
}

func (s *inMemorySubstrate) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writes, s.deletes
}

type recordingNavigator struct {
	mu        sync.Mutex
	redirects []string
}

func (n *recordingNavigator) Redirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.redirects = append(n.redirects, path)
}

func (n *recordingNavigator) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.redirects...)
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testSubstrates struct {
	durable *inMemorySubstrate
	cookie  *inMemorySubstrate
}

func newTestSession(t *testing.T) (*Session, testSubstrates) {
	t.Helper()

	subs := testSubstrates{durable: newInMemorySubstrate(), cookie: newInMemorySubstrate()}
	session, err := NewSession([]KindBinding{
		{Kind: domain.AccountKindUser, Key: "userState", Substrate: subs.durable, LoginRoute: "/auth/login"},
		{Kind: domain.AccountKindAgent, Key: "agentToken", Substrate: subs.cookie, LoginRoute: "/agents/auth/login"},
		{Kind: domain.AccountKindAdmin, Key: "adminToken", Substrate: subs.cookie, LoginRoute: "/admin/auth/login"},
	}, discardLogger())
	require.NoError(t, err)

	return session, subs
}

func mustStore(t *testing.T, session *Session, kind domain.AccountKind) *SessionStore {
	t.Helper()

	store, err := session.ForKind(kind)
	require.NoError(t, err)
	return store
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

// gatedSubstrate blocks every Write until release is closed.
type gatedSubstrate struct {
	*inMemorySubstrate
	writing chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedSubstrate() *gatedSubstrate {
	return &gatedSubstrate{
		inMemorySubstrate: newInMemorySubstrate(),
		writing:           make(chan struct{}),
		release:           make(chan struct{}),
	}
}

func (s *gatedSubstrate) Write(ctx context.Context, key string, value string) error {
	s.once.Do(func() { close(s.writing) })
	<-s.release
	return s.inMemorySubstrate.Write(ctx, key, value)
}
