package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".leasehold"
	envPrefix  = "LEASEHOLD"

	SubstrateCookie  = "cookie"
	SubstrateDurable = "durable"

	BackendTOML  = "toml"
	BackendBolt  = "bolt"
	BackendRedis = "redis"

	VaultChain = "chain"
	VaultFile  = "file"
	VaultPass  = "pass"
)

type Config struct {
	Kinds   map[domain.AccountKind]KindConfig
	Cookie  CookieConfig
	Durable DurableConfig
	Tokens  TokensConfig
	HTTP    HTTPConfig
	Log     LogConfig
}

type KindConfig struct {
	Key        string
	Substrate  string
	LoginRoute string
}

type CookieConfig struct {
	TTL     time.Duration
	JarPath string
}

type DurableConfig struct {
	Backend     string
	Path        string
	RedisAddr   string
	RedisPrefix string
}

type TokensConfig struct {
	Vault string
	Dir   string
}

type HTTPConfig struct {
	Addr         string
	ClientCookie string
}

type LogConfig struct {
	Level  string
	Format string
}

var defaultKinds = map[domain.AccountKind]KindConfig{
	domain.AccountKindUser:  {Key: "userState", Substrate: SubstrateDurable, LoginRoute: "/auth/login"},
	domain.AccountKindAgent: {Key: "agentToken", Substrate: SubstrateCookie, LoginRoute: "/agents/auth/login"},
	domain.AccountKindAdmin: {Key: "adminToken", Substrate: SubstrateCookie, LoginRoute: "/admin/auth/login"},
}

// Load reads ~/.leasehold/config.toml when present, applies LEASEHOLD_*
// environment overrides and validates the result.
func Load(cfg *viper.Viper, homeDir string) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if homeDir == "" {
		return Config{}, errors.New("home directory is empty")
	}

	root := filepath.Join(homeDir, configDir)
	setDefaults(cfg, root)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(root)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	loaded := Config{
		Kinds: make(map[domain.AccountKind]KindConfig, len(defaultKinds)),
		Cookie: CookieConfig{
			TTL:     cfg.GetDuration("cookie.ttl"),
			JarPath: cfg.GetString("cookie.jar_path"),
		},
		Durable: DurableConfig{
			Backend:     strings.ToLower(cfg.GetString("durable.backend")),
			Path:        cfg.GetString("durable.path"),
			RedisAddr:   cfg.GetString("durable.redis_addr"),
			RedisPrefix: cfg.GetString("durable.redis_prefix"),
		},
		Tokens: TokensConfig{
			Vault: strings.ToLower(cfg.GetString("tokens.vault")),
			Dir:   cfg.GetString("tokens.dir"),
		},
		HTTP: HTTPConfig{
			Addr:         cfg.GetString("http.addr"),
			ClientCookie: cfg.GetString("http.client_cookie"),
		},
		Log: LogConfig{
			Level:  cfg.GetString("log.level"),
			Format: cfg.GetString("log.format"),
		},
	}

	for _, kind := range domain.AllAccountKinds() {
		prefix := "kinds." + string(kind) + "."
		loaded.Kinds[kind] = KindConfig{
			Key:        cfg.GetString(prefix + "key"),
			Substrate:  strings.ToLower(cfg.GetString(prefix + "substrate")),
			LoginRoute: cfg.GetString(prefix + "login_route"),
		}
	}

	if err := loaded.Validate(); err != nil {
		return Config{}, err
	}

	return loaded, nil
}

func setDefaults(cfg *viper.Viper, root string) {
	for kind, defaults := range defaultKinds {
		prefix := "kinds." + string(kind) + "."
		cfg.SetDefault(prefix+"key", defaults.Key)
		cfg.SetDefault(prefix+"substrate", defaults.Substrate)
		cfg.SetDefault(prefix+"login_route", defaults.LoginRoute)
	}

	cfg.SetDefault("cookie.ttl", 2*time.Hour)
	cfg.SetDefault("cookie.jar_path", filepath.Join(root, "cookies.toml"))
	cfg.SetDefault("durable.backend", BackendTOML)
	cfg.SetDefault("durable.path", filepath.Join(root, "durable.toml"))
	cfg.SetDefault("durable.redis_addr", "127.0.0.1:6379")
	cfg.SetDefault("durable.redis_prefix", "leasehold:durable:")
	cfg.SetDefault("tokens.vault", VaultChain)
	cfg.SetDefault("tokens.dir", filepath.Join(root, "tokens"))
	cfg.SetDefault("http.addr", "127.0.0.1:8080")
	cfg.SetDefault("http.client_cookie", "lh_client")
	cfg.SetDefault("log.level", "info")
	cfg.SetDefault("log.format", "text")
}

func (c Config) Validate() error {
	var errs []error

	seen := map[string]domain.AccountKind{}
	for _, kind := range domain.AllAccountKinds() {
		kc, ok := c.Kinds[kind]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: missing kind configuration", kind))
			continue
		}
		if strings.TrimSpace(kc.Key) == "" {
			errs = append(errs, fmt.Errorf("%s: key is required", kind))
		}
		switch kc.Substrate {
		case SubstrateCookie, SubstrateDurable:
		default:
			errs = append(errs, fmt.Errorf("%s: unsupported substrate %q", kind, kc.Substrate))
		}
		if !strings.HasPrefix(kc.LoginRoute, "/") {
			errs = append(errs, fmt.Errorf("%s: login route must be an absolute path", kind))
		}

		namespaced := kc.Substrate + ":" + kc.Key
		if other, dup := seen[namespaced]; dup {
			errs = append(errs, fmt.Errorf("%s: key %q already used by %s", kind, kc.Key, other))
		}
		seen[namespaced] = kind
	}

	if c.Cookie.TTL <= 0 {
		errs = append(errs, errors.New("cookie.ttl must be positive"))
	}

	switch c.Durable.Backend {
	case BackendTOML, BackendBolt:
		if c.Durable.Path == "" {
			errs = append(errs, errors.New("durable.path is required"))
		}
	case BackendRedis:
		if c.Durable.RedisAddr == "" {
			errs = append(errs, errors.New("durable.redis_addr is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported durable backend %q", c.Durable.Backend))
	}

	switch c.Tokens.Vault {
	case VaultChain, VaultFile:
		if c.Tokens.Dir == "" {
			errs = append(errs, errors.New("tokens.dir is required"))
		}
	case VaultPass:
	default:
		errs = append(errs, fmt.Errorf("unsupported token vault %q", c.Tokens.Vault))
	}

	if c.HTTP.ClientCookie == "" {
		errs = append(errs, errors.New("http.client_cookie is required"))
	}

	return errors.Join(errs...)
}
