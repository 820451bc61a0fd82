package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
)

// Service exposes the session core to the CLI and HTTP adapters.
type Service struct {
	session      *Session
	bootstrapper *Bootstrapper
	clock        ports.Clock
	tokens       ports.TokenVault
	logger       *slog.Logger

	mu          sync.RWMutex
	rehydration map[domain.AccountKind]RehydrationResult
}

type ServiceOption func(*Service)

// WithTokenVault lets logins hand over an authorization token that is kept in
// vault while the snapshot only stores its reference.
func WithTokenVault(vault ports.TokenVault) ServiceOption {
	return func(s *Service) {
		s.tokens = vault
	}
}

func NewService(session *Session, logger *slog.Logger, clock ports.Clock, opts ...ServiceOption) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		session:      session,
		bootstrapper: NewBootstrapper(session, logger),
		clock:        clock,
		logger:       logger,
		rehydration:  map[domain.AccountKind]RehydrationResult{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Session() *Session {
	return s.session
}

// Start rehydrates all stores. It is safe to call more than once.
func (s *Service) Start(ctx context.Context) []RehydrationResult {
	results := s.bootstrapper.Run(ctx)

	s.mu.Lock()
	for _, result := range results {
		s.rehydration[result.Kind] = result
	}
	s.mu.Unlock()

	return results
}

func (s *Service) Login(ctx context.Context, cmd LoginCommand) (domain.Snapshot, error) {
	store, err := s.session.ForKind(cmd.Kind)
	if err != nil {
		return domain.Snapshot{}, err
	}

	fields := cmd.Fields
	if cmd.Token != "" {
		ref, err := s.storeToken(ctx, cmd.Kind, fields.AccountID, cmd.Token)
		if err != nil {
			return store.Snapshot(), fmt.Errorf("login: %w", err)
		}
		fields.TokenRef = ref
	}

	if err := store.Login(ctx, fields); err != nil {
		return store.Snapshot(), fmt.Errorf("login: %w", err)
	}
	return store.Snapshot(), nil
}

func (s *Service) storeToken(ctx context.Context, kind domain.AccountKind, id *domain.AccountID, token string) (string, error) {
	if s.tokens == nil {
		return "", ErrNoTokenVault
	}
	if id == nil {
		return "", domain.ErrMissingAccountID
	}

	key := TokenKey(kind, *id)
	if err := s.tokens.Put(ctx, key, token); err != nil {
		return "", fmt.Errorf("store %s token: %w", kind, err)
	}
	return TokenRef(key), nil
}

// Token resolves the authorization token referenced by a logged-in session.
func (s *Service) Token(ctx context.Context, kind domain.AccountKind) (string, error) {
	store, err := s.session.ForKind(kind)
	if err != nil {
		return "", err
	}

	snapshot := store.Snapshot()
	if !snapshot.Matches(kind) {
		return "", fmt.Errorf("%s token: %w", kind, domain.ErrNotLoggedIn)
	}
	key, ok := ownedTokenKey(kind, snapshot)
	if !ok {
		return "", fmt.Errorf("%s token: %w", kind, domain.ErrTokenNotFound)
	}
	if s.tokens == nil {
		return "", ErrNoTokenVault
	}

	return s.tokens.Get(ctx, key)
}

// Logout clears the session of cmd.Kind. A vaulted token written by Login for
// that account is removed afterwards; failing to remove it does not undo or
// fail the logout.
func (s *Service) Logout(ctx context.Context, cmd LogoutCommand) error {
	store, err := s.session.ForKind(cmd.Kind)
	if err != nil {
		return err
	}

	snapshot := store.Snapshot()
	if err := store.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	key, ok := ownedTokenKey(cmd.Kind, snapshot)
	if !ok || s.tokens == nil {
		return nil
	}
	if err := s.tokens.Delete(ctx, key); err != nil {
		s.logger.Warn("delete vaulted token after logout", "kind", string(cmd.Kind), "key", key, "err", err)
	}
	return nil
}

func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (domain.Snapshot, error) {
	store, err := s.session.ForKind(cmd.Kind)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := store.Update(ctx, cmd.Patch); err != nil {
		return store.Snapshot(), fmt.Errorf("update: %w", err)
	}
	return store.Snapshot(), nil
}

func (s *Service) GetStatus(kind domain.AccountKind) (Status, error) {
	store, err := s.session.ForKind(kind)
	if err != nil {
		return Status{}, err
	}
	return s.statusFromStore(store), nil
}

func (s *Service) GetStatusAll() []Status {
	stores := s.session.Stores()
	statuses := make([]Status, 0, len(stores))
	for _, store := range stores {
		statuses = append(statuses, s.statusFromStore(store))
	}
	return statuses
}

func (s *Service) statusFromStore(store *SessionStore) Status {
	status := Status{
		Kind:       store.Kind(),
		Key:        store.Key(),
		LoginRoute: s.session.LoginRoute(store.Kind()),
		Snapshot:   store.Snapshot(),
		CapturedAt: s.clock.Now(),
	}

	s.mu.RLock()
	if result, ok := s.rehydration[store.Kind()]; ok {
		status.Rehydration = &result
	}
	s.mu.RUnlock()

	return status
}
