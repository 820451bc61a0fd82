package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	statusadapter "github.com/bnema/leasehold/internal/adapters/render/status"
	boltstore "github.com/bnema/leasehold/internal/adapters/storage/bolt"
	"github.com/bnema/leasehold/internal/adapters/storage/cookie"
	redisstore "github.com/bnema/leasehold/internal/adapters/storage/redis"
	"github.com/bnema/leasehold/internal/adapters/storage/scoped"
	tomlstore "github.com/bnema/leasehold/internal/adapters/storage/toml"
	chainvault "github.com/bnema/leasehold/internal/adapters/tokens/chain"
	filevault "github.com/bnema/leasehold/internal/adapters/tokens/file"
	passvault "github.com/bnema/leasehold/internal/adapters/tokens/pass"
	"github.com/bnema/leasehold/internal/application"
	"github.com/bnema/leasehold/internal/config"
	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/logging"
	"github.com/bnema/leasehold/internal/ports"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// cliNamespace scopes the CLI's durable entries away from those of HTTP clients
// sharing the same backend.
const cliNamespace = "cli"

type app struct {
	cfg            config.Config
	logger         *slog.Logger
	service        *application.Service
	jar            *cookie.Jar
	durable        ports.Substrate
	closers        []io.Closer
	statusRenderer func([]application.Status, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg, err := config.Load(viper.New(), homeDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.Setup(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	a := &app{
		cfg:            cfg,
		logger:         logger,
		statusRenderer: statusadapter.Render,
		now:            time.Now,
	}

	durable, closer, err := openDurable(cfg.Durable)
	if err != nil {
		return nil, fmt.Errorf("wire durable substrate: %w", err)
	}
	a.durable = durable
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	jar, err := cookie.OpenJar(cfg.Cookie.JarPath, ports.SystemClock{})
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("wire cookie jar: %w", err)
	}
	a.jar = jar

	cookies := cookie.NewSubstrate(jar, cookie.WithTTL(cfg.Cookie.TTL))
	session, err := application.NewSession(
		kindBindings(cfg, cookies, scoped.NewNamespaced(durable, cliNamespace)),
		logger,
	)
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("wire session: %w", err)
	}

	vault, err := openVault(cfg.Tokens)
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("wire token vault: %w", err)
	}
	a.service = application.NewService(session, logger, ports.SystemClock{}, application.WithTokenVault(vault))

	return a, nil
}

func kindBindings(cfg config.Config, cookies, durable ports.Substrate) []application.KindBinding {
	bindings := make([]application.KindBinding, 0, len(cfg.Kinds))
	for _, kind := range domain.AllAccountKinds() {
		kc := cfg.Kinds[kind]
		substrate := cookies
		if kc.Substrate == config.SubstrateDurable {
			substrate = durable
		}
		bindings = append(bindings, application.KindBinding{
			Kind:       kind,
			Key:        kc.Key,
			Substrate:  substrate,
			LoginRoute: kc.LoginRoute,
		})
	}
	return bindings
}

func openDurable(cfg config.DurableConfig) (ports.Substrate, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendTOML:
		substrate, err := tomlstore.NewSubstrate(cfg.Path)
		return substrate, nil, err
	case config.BackendBolt:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create durable directory: %w", err)
		}
		substrate, err := boltstore.Open(cfg.Path, nil)
		if err != nil {
			return nil, nil, err
		}
		return substrate, substrate, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		substrate, err := redisstore.NewSubstrate(client, cfg.RedisPrefix)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return substrate, client, nil
	default:
		return nil, nil, fmt.Errorf("unsupported durable backend %q", cfg.Backend)
	}
}

func openVault(cfg config.TokensConfig) (ports.TokenVault, error) {
	switch cfg.Vault {
	case config.VaultChain:
		return chainvault.NewPassFirstWithFileFallback(cfg.Dir)
	case config.VaultFile:
		return filevault.NewVault(cfg.Dir), nil
	case config.VaultPass:
		return passvault.NewVault(), nil
	default:
		return nil, fmt.Errorf("unsupported token vault %q", cfg.Vault)
	}
}

// start rehydrates the CLI's stores before a command reads them.
func (a *app) start(ctx context.Context) []application.RehydrationResult {
	return a.service.Start(ctx)
}

func (a *app) close() error {
	var errs []error
	if a.jar != nil {
		errs = append(errs, a.jar.Err())
	}
	for _, closer := range a.closers {
		errs = append(errs, closer.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
