package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/leasehold/internal/adapters/web"
	"github.com/bnema/leasehold/internal/config"
	"github.com/bnema/leasehold/internal/domain"
	"github.com/spf13/cobra"
)

var dashboards = map[domain.AccountKind]string{
	domain.AccountKindUser:  "/dashboard",
	domain.AccountKindAgent: "/agents/dashboard",
	domain.AccountKindAdmin: "/admin/dashboard",
}

func newServeCmd(app *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API and guarded pages over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = app.cfg.HTTP.Addr
			}

			server, err := web.NewServer(web.Config{
				Kinds:        webKinds(app.cfg),
				Durable:      app.durable,
				CookieTTL:    app.cfg.Cookie.TTL,
				ClientCookie: app.cfg.HTTP.ClientCookie,
				Logger:       app.logger,
			})
			if err != nil {
				return err
			}

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			done := make(chan error, 1)
			go func() {
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					done <- fmt.Errorf("server failed: %w", err)
					return
				}
				done <- nil
			}()

			app.logger.Info("serving sessions", "addr", addr, "durable", app.cfg.Durable.Backend)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case <-ctx.Done():
				app.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown failed: %w", err)
				}
				return nil
			case err := <-done:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config http.addr)")

	return cmd
}

func webKinds(cfg config.Config) []web.KindConfig {
	kinds := make([]web.KindConfig, 0, len(cfg.Kinds))
	for _, kind := range domain.AllAccountKinds() {
		kc := cfg.Kinds[kind]
		kinds = append(kinds, web.KindConfig{
			Kind:       kind,
			Key:        kc.Key,
			Durable:    kc.Substrate == config.SubstrateDurable,
			LoginRoute: kc.LoginRoute,
			Dashboard:  dashboards[kind],
		})
	}
	return kinds
}
