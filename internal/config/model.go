// internal/config/model.go
//
// Typed configuration model for hemo.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • compiled defaults                       – see defaults.go,
//   • `conf/hemo.yaml`                        – primary static file,
//   • `HEMO_`-prefixed environment overrides  – highest precedence, with
//     an optional `conf/.env` loaded into the environment first.
//
// Any value whose string begins with `vault:` is resolved through the
// Vault client before validation, so the model never hands a Vault URI to
// a backend.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// Tenant section
//

// Tenant holds the hostname policy used by the tenant resolver.
type Tenant struct {
	RootDomain string `koanf:"root_domain" validate:"required,fqdn"`
	Scheme     string `koanf:"scheme"      validate:"required,oneof=http https"`

	// Host is the hostname the CLI acts as when --host is not given.
	Host string `koanf:"host"`

	// ValidationTTL bounds how long a check-subdomain answer is reused.
	ValidationTTL time.Duration `koanf:"validation_ttl"`
}

//
// HTTP section
//

// HTTP holds web-shell tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Client section
//

// Client tunes the outbound REST client.
type Client struct {
	Timeout  time.Duration `koanf:"timeout"   validate:"required"`
	RetryMax int           `koanf:"retry_max" validate:"min=0,max=10"`

	// Upstream, when set, is the host:port every API call dials instead of
	// the address DNS gives for the tenant host.
	Upstream string `koanf:"upstream" validate:"omitempty,hostname_port"`
}

//
// Session section
//

// Session selects and configures the session backend.
//
// The SQL DSN and the Redis password are the two secrets; both accept a
// `vault:` reference.
type Session struct {
	Backend string `koanf:"backend" validate:"required,oneof=memory file redis sql"`

	Dir string `koanf:"dir" validate:"required_if=Backend file"`

	RedisAddr     string `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	SQLDSN string `koanf:"sql_dsn" validate:"required_if=Backend sql"`

	// TTL bounds a browser session server-side and sets the cookie's
	// lifetime.  Zero keeps sessions until cleared.
	TTL time.Duration `koanf:"ttl" validate:"gte=0"`
	// MaxScopes caps the memory backend; the least recently used scope
	// goes first.
	MaxScopes int `koanf:"max_scopes" validate:"gte=0"`
}

//
// Log section
//

// Log configures the zap + lumberjack logger.
type Log struct {
	Dir   string `koanf:"dir"   validate:"required"`
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	Tee   bool   `koanf:"tee"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // HEMO_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	Tenant  Tenant  `koanf:"tenant"`
	HTTP    HTTP    `koanf:"http"`
	Client  Client  `koanf:"client"`
	Session Session `koanf:"session"`
	Log     Log     `koanf:"log"`
	Paths   Paths   `koanf:"-"`
}
