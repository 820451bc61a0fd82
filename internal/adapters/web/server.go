// Package web hosts the session stores behind an HTTP interface. Every request
// gets its own set of stores, rehydrated from the request's cookies and from the
// durable substrate scoped to the caller's client id.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bnema/leasehold/internal/adapters/storage/cookie"
	"github.com/bnema/leasehold/internal/adapters/storage/scoped"
	"github.com/bnema/leasehold/internal/application"
	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const DefaultClientCookie = "lh_client"

// clientCookieTTL keeps the client id around far longer than any session cookie.
const clientCookieTTL = 365 * 24 * time.Hour

// KindConfig binds one account kind to where its snapshot lives.
type KindConfig struct {
	Kind       domain.AccountKind
	Key        string
	Durable    bool
	LoginRoute string
	// Dashboard is the protected page guarded by this kind. Empty disables it.
	Dashboard string
}

type Config struct {
	Kinds        []KindConfig
	Durable      ports.Substrate
	CookieTTL    time.Duration
	ClientCookie string
	Logger       *slog.Logger
	Clock        ports.Clock
}

type Server struct {
	kinds        []KindConfig
	durable      ports.Substrate
	cookieTTL    time.Duration
	clientCookie string
	logger       *slog.Logger
	clock        ports.Clock
}

type serviceKey struct{}

func NewServer(cfg Config) (*Server, error) {
	if len(cfg.Kinds) == 0 {
		return nil, errors.New("web server: no account kinds configured")
	}

	seen := map[domain.AccountKind]bool{}
	for _, kc := range cfg.Kinds {
		if !kc.Kind.Valid() {
			return nil, fmt.Errorf("web server: %w: %q", domain.ErrUnknownAccountKind, kc.Kind)
		}
		if seen[kc.Kind] {
			return nil, fmt.Errorf("web server: duplicate kind %s", kc.Kind)
		}
		seen[kc.Kind] = true
	}

	s := &Server{
		kinds:        cfg.Kinds,
		durable:      cfg.Durable,
		cookieTTL:    cfg.CookieTTL,
		clientCookie: cfg.ClientCookie,
		logger:       cfg.Logger,
		clock:        cfg.Clock,
	}
	if s.durable == nil {
		s.durable = scoped.Detached{}
	}
	if s.cookieTTL <= 0 {
		s.cookieTTL = cookie.DefaultTTL
	}
	if s.clientCookie == "" {
		s.clientCookie = DefaultClientCookie
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.clock == nil {
		s.clock = ports.SystemClock{}
	}

	return s, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Route("/api/session", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Get("/{kind}", s.handleGetSession)
			r.Post("/{kind}", s.handleLogin)
			r.Patch("/{kind}", s.handleUpdate)
			r.Delete("/{kind}", s.handleLogout)
		})

		for _, kc := range s.kinds {
			r.Get(kc.LoginRoute, s.handleLoginPage(kc.Kind))
			if kc.Dashboard != "" {
				r.With(s.requireKind(kc.Kind)).Get(kc.Dashboard, s.handleDashboard(kc.Kind))
			}
		}
	})

	return r
}

// withSession builds and rehydrates the request's session before any handler
// reads it.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.clientID(w, r)
		doc := cookie.NewHTTPDocument(w, r)
		cookies := cookie.NewSubstrate(doc, cookie.WithTTL(s.cookieTTL), cookie.WithClock(s.clock))
		durable := scoped.NewNamespaced(s.durable, clientID)

		bindings := make([]application.KindBinding, 0, len(s.kinds))
		for _, kc := range s.kinds {
			var substrate ports.Substrate = cookies
			if kc.Durable {
				substrate = durable
			}
			bindings = append(bindings, application.KindBinding{
				Kind:       kc.Kind,
				Key:        kc.Key,
				Substrate:  substrate,
				LoginRoute: kc.LoginRoute,
			})
		}

		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		session, err := application.NewSession(bindings, logger)
		if err != nil {
			logger.Error("build request session", "err", err)
			writeError(w, http.StatusInternalServerError, "session_unavailable")
			return
		}

		service := application.NewService(session, logger, s.clock)
		service.Start(r.Context())

		ctx := context.WithValue(r.Context(), serviceKey{}, service)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientID returns the caller's client id, issuing a fresh one when the
// cookie is missing or not a uuid.
func (s *Server) clientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.clientCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.clientCookie,
		Value:    id,
		Path:     "/",
		Expires:  s.clock.Now().Add(clientCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func serviceFrom(ctx context.Context) *application.Service {
	service, _ := ctx.Value(serviceKey{}).(*application.Service)
	return service
}
