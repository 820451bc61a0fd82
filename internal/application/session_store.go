package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
)

var errNilSubstrate = errors.New("session substrate is nil")

// SessionStore holds the canonical in-memory session of one account kind and
// owns the persisted copy stored under its key.
type SessionStore struct {
	kind      domain.AccountKind
	key       string
	substrate ports.Substrate
	logger    *slog.Logger

	// persistMu orders each in-memory change of Login and Logout together with
	// its write or delete, so the persisted copy follows the last of them.
	persistMu sync.Mutex

	mu       sync.RWMutex
	snapshot domain.Snapshot

	listenersMu sync.Mutex
	listeners   map[int]func(domain.Snapshot)
	nextID      int
}

type StoreConfig struct {
	Kind      domain.AccountKind
	Key       string
	Substrate ports.Substrate
	Logger    *slog.Logger
}

func NewSessionStore(cfg StoreConfig) (*SessionStore, error) {
	if !cfg.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAccountKind, cfg.Kind)
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("%s session key is empty", cfg.Kind)
	}
	if cfg.Substrate == nil {
		return nil, fmt.Errorf("%s: %w", cfg.Kind, errNilSubstrate)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionStore{
		kind:      cfg.Kind,
		key:       cfg.Key,
		substrate: cfg.Substrate,
		logger:    logger.With("kind", string(cfg.Kind)),
		snapshot:  domain.DefaultSnapshot(),
		listeners: map[int]func(domain.Snapshot){},
	}, nil
}

func (s *SessionStore) Kind() domain.AccountKind {
	return s.kind
}

func (s *SessionStore) Key() string {
	return s.key
}

func (s *SessionStore) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot
}

// Login installs fields as the logged-in session and persists it. A
// persistence failure is returned but the in-memory login stands.
func (s *SessionStore) Login(ctx context.Context, fields domain.Fields) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	snapshot, err := s.install(fields)
	if err != nil {
		return err
	}

	encoded, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := s.substrate.Write(ctx, s.key, encoded); err != nil {
		s.logger.Error("persist session snapshot", "key", s.key, "err", err)
		return fmt.Errorf("persist %s session: %w", s.kind, err)
	}

	s.logger.Debug("session logged in", "account_id", int64(*snapshot.AccountID))
	return nil
}

// restore replays a login without writing the persisted copy back.
func (s *SessionStore) restore(fields domain.Fields) error {
	_, err := s.install(fields)
	return err
}

func (s *SessionStore) install(fields domain.Fields) (domain.Snapshot, error) {
	if fields.AccountID == nil {
		return domain.Snapshot{}, fmt.Errorf("%s login: %w", s.kind, domain.ErrMissingAccountID)
	}

	snapshot := fields.LoggedIn(s.kind)
	_ = s.replace(func(domain.Snapshot) (domain.Snapshot, error) {
		return snapshot, nil
	})

	return snapshot, nil
}

func (s *SessionStore) Logout(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.reset()

	if err := s.substrate.Delete(ctx, s.key); err != nil {
		s.logger.Error("delete persisted session", "key", s.key, "err", err)
		return fmt.Errorf("delete %s session: %w", s.kind, err)
	}

	s.logger.Debug("session logged out")
	return nil
}

// reset clears the in-memory session without touching the persisted copy.
func (s *SessionStore) reset() {
	_ = s.replace(func(domain.Snapshot) (domain.Snapshot, error) {
		return domain.DefaultSnapshot(), nil
	})
}

// Update merges patch into a logged-in session. It never touches persistence.
func (s *SessionStore) Update(_ context.Context, patch domain.Patch) error {
	return s.replace(func(current domain.Snapshot) (domain.Snapshot, error) {
		if !current.IsLoggedIn {
			return current, fmt.Errorf("%s update: %w", s.kind, domain.ErrNotLoggedIn)
		}
		return patch.Apply(current), nil
	})
}

// Subscribe registers fn for every snapshot change. Listeners run outside the
// snapshot lock and may read, update or clear the store, but must not call
// Login or Logout on it. The returned function removes fn.
func (s *SessionStore) Subscribe(fn func(domain.Snapshot)) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *SessionStore) replace(mutate func(domain.Snapshot) (domain.Snapshot, error)) error {
	s.mu.Lock()
	next, err := mutate(s.snapshot)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.snapshot = next
	s.mu.Unlock()

	s.listenersMu.Lock()
	listeners := make([]func(domain.Snapshot), 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}

	return nil
}
