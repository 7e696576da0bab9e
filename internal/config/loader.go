// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Compiled defaults (confmap).
  2. `conf/hemo.yaml`, when present.  The CLI runs fine without it.
  3. Environment variables prefixed `HEMO_`, where `__` maps to "."
     (e.g., `HEMO_SESSION__BACKEND → session.backend`).

An optional `<root>/conf/.env` is loaded into the process environment
first, so its entries act as layer 3 without replacing real variables.

After merging, the tree is unmarshalled into typed structs, `vault:`
references are resolved, the result is validated, enriched with the runtime
root path, and cached in an `atomic.Pointer` for lock-free reads.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, env overlay.
  • ERROR spans: YAML parse, env overlay, unmarshal, secret, validation.
  • INFO  span:  final "config loaded" with key highlights.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/hemo/internal/vault"
)

const (
	envPrefix = "HEMO_"
	yamlName  = "hemo.yaml"
)

var current atomic.Pointer[Config]

// SecretResolver turns a `vault:` reference into its plain value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// newResolver is swapped by tests.
var newResolver = func(ctx context.Context) (SecretResolver, error) {
	return vault.New(ctx, zap.S().Infof)
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves HEMO_ROOT or climbs directories until conf/hemo.yaml is
// found.  Falls back to the working directory.
func rootDir() string {
	if r := os.Getenv("HEMO_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", yamlName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load discovers the root directory and loads from there.
func Load() (*Config, error) {
	return LoadFrom(context.Background(), rootDir())
}

// LoadFrom reads defaults, .env, YAML, and env overrides relative to root,
// resolves secrets, validates, and caches the Config.
func LoadFrom(ctx context.Context, root string) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, err
	}

	yamlPath := filepath.Join(root, "conf", yamlName)
	if _, err := os.Stat(yamlPath); err == nil {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, err
		}
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, &cfg); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if !filepath.IsAbs(cfg.Session.Dir) {
		cfg.Session.Dir = filepath.Join(root, cfg.Session.Dir)
	}
	if !filepath.IsAbs(cfg.Log.Dir) {
		cfg.Log.Dir = filepath.Join(root, cfg.Log.Dir)
	}

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"root_domain", cfg.Tenant.RootDomain,
		"session_backend", cfg.Session.Backend,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// envKey maps HEMO_SESSION__REDIS_ADDR to session.redis_addr.
func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

// resolveSecrets swaps `vault:` references for their values.  The Vault
// client is only dialled when at least one reference is present.
func resolveSecrets(ctx context.Context, cfg *Config) error {
	fields := []*string{&cfg.Session.RedisPassword, &cfg.Session.SQLDSN}

	var refs []*string
	for _, f := range fields {
		if vault.IsRef(*f) {
			refs = append(refs, f)
		}
	}
	if len(refs) == 0 {
		return nil
	}

	res, err := newResolver(ctx)
	if err != nil {
		return fmt.Errorf("vault client: %w", err)
	}
	for _, f := range refs {
		v, err := res.Resolve(ctx, *f)
		if err != nil {
			return err
		}
		if v == "" {
			return errors.New("vault reference resolved to an empty value")
		}
		*f = v
	}
	return nil
}

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
