package application

import (
	"fmt"
	"log/slog"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
)

// KindBinding wires one account kind to its persistence namespace and login route.
type KindBinding struct {
	Kind       domain.AccountKind
	Key        string
	Substrate  ports.Substrate
	LoginRoute string
}

// Session is the composition root's set of stores, exactly one per account kind.
type Session struct {
	stores map[domain.AccountKind]*SessionStore
	routes map[domain.AccountKind]string
}

func NewSession(bindings []KindBinding, logger *slog.Logger) (*Session, error) {
	session := &Session{
		stores: make(map[domain.AccountKind]*SessionStore, len(bindings)),
		routes: make(map[domain.AccountKind]string, len(bindings)),
	}

	for _, binding := range bindings {
		if _, ok := session.stores[binding.Kind]; ok {
			return nil, fmt.Errorf("duplicate session binding for %s", binding.Kind)
		}
		store, err := NewSessionStore(StoreConfig{
			Kind:      binding.Kind,
			Key:       binding.Key,
			Substrate: binding.Substrate,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("wire %s session store: %w", binding.Kind, err)
		}
		if binding.LoginRoute == "" {
			return nil, fmt.Errorf("%s login route is empty", binding.Kind)
		}
		session.stores[binding.Kind] = store
		session.routes[binding.Kind] = binding.LoginRoute
	}

	return session, nil
}

func (s *Session) ForKind(kind domain.AccountKind) (*SessionStore, error) {
	store, ok := s.stores[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAccountKind, kind)
	}
	return store, nil
}

func (s *Session) LoginRoute(kind domain.AccountKind) string {
	return s.routes[kind]
}

// Stores returns the configured stores in user, agent, admin order.
func (s *Session) Stores() []*SessionStore {
	stores := make([]*SessionStore, 0, len(s.stores))
	for _, kind := range domain.AllAccountKinds() {
		if store, ok := s.stores[kind]; ok {
			stores = append(stores, store)
		}
	}
	return stores
}

// Guard builds a route guard for kind that redirects through nav.
func (s *Session) Guard(kind domain.AccountKind, nav ports.Navigator) (*Guard, error) {
	store, err := s.ForKind(kind)
	if err != nil {
		return nil, err
	}
	return NewGuard(kind, store, nav, s.routes[kind])
}
