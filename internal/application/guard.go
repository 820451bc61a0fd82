package application

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
)

var errNilNavigator = errors.New("guard navigator is nil")

// Guard gates protected content on the session of one account kind. While
// mounted it re-evaluates on every store change and redirects to the kind's
// login route once per period in which access is denied. A denied store that
// still holds stale fields is cleared to the default snapshot in memory.
type Guard struct {
	kind       domain.AccountKind
	store      *SessionStore
	nav        ports.Navigator
	loginRoute string

	mu          sync.Mutex
	allowed     bool
	redirected  bool
	unsubscribe func()
}

func NewGuard(kind domain.AccountKind, store *SessionStore, nav ports.Navigator, loginRoute string) (*Guard, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAccountKind, kind)
	}
	if store == nil {
		return nil, fmt.Errorf("%s guard: session store is nil", kind)
	}
	if nav == nil {
		return nil, fmt.Errorf("%s: %w", kind, errNilNavigator)
	}
	if loginRoute == "" {
		return nil, fmt.Errorf("%s guard: login route is empty", kind)
	}

	return &Guard{kind: kind, store: store, nav: nav, loginRoute: loginRoute}, nil
}

func (g *Guard) Kind() domain.AccountKind {
	return g.kind
}

func (g *Guard) LoginRoute() string {
	return g.loginRoute
}

// Mount subscribes the guard to its store and evaluates the current state.
func (g *Guard) Mount() bool {
	g.mu.Lock()
	if g.unsubscribe == nil {
		g.unsubscribe = g.store.Subscribe(func(snapshot domain.Snapshot) {
			g.evaluate(snapshot)
		})
	}
	g.mu.Unlock()

	return g.evaluate(g.store.Snapshot())
}

func (g *Guard) Unmount() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Allowed evaluates the store as a render pass would.
func (g *Guard) Allowed() bool {
	return g.evaluate(g.store.Snapshot())
}

// Render runs children only when the session satisfies the guard.
func (g *Guard) Render(children func()) bool {
	if !g.Allowed() {
		return false
	}
	if children != nil {
		children()
	}
	return true
}

func (g *Guard) evaluate(snapshot domain.Snapshot) bool {
	allowed := snapshot.Matches(g.kind)

	g.mu.Lock()
	g.allowed = allowed
	redirect := !allowed && !g.redirected
	if allowed {
		g.redirected = false
	} else {
		g.redirected = true
	}
	g.mu.Unlock()

	if redirect {
		if !snapshot.IsDefault() {
			g.store.reset()
		}
		g.nav.Redirect(g.loginRoute)
	}

	return allowed
}

// Granted reports the outcome of the most recent evaluation without
// re-evaluating or redirecting.
func (g *Guard) Granted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.allowed
}
