package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", yamlName), []byte(body), 0o644))
	return root
}

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := f[ref]
	if !ok {
		return "", errors.New("no such secret")
	}
	return v, nil
}

func withResolver(t *testing.T, r SecretResolver) {
	t.Helper()
	prev := newResolver
	newResolver = func(context.Context) (SecretResolver, error) { return r, nil }
	t.Cleanup(func() { newResolver = prev })
}

func TestLoadFrom_DefaultsWithoutYAML(t *testing.T) {
	root := t.TempDir()

	cfg, err := LoadFrom(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, "cimssante.com", cfg.Tenant.RootDomain)
	assert.Equal(t, "https", cfg.Tenant.Scheme)
	assert.Equal(t, 5*time.Minute, cfg.Tenant.ValidationTTL)
	assert.Equal(t, 15*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "file", cfg.Session.Backend)
	assert.Equal(t, filepath.Join(root, ".hemo", "sessions"), cfg.Session.Dir)
	assert.Equal(t, 14*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 10000, cfg.Session.MaxScopes)
	assert.Equal(t, filepath.Join(root, "logs"), cfg.Log.Dir)
	assert.Equal(t, root, cfg.Paths.Root)
	assert.Same(t, cfg, Get())
}

func TestLoadFrom_YAMLThenEnv(t *testing.T) {
	root := writeYAML(t, `
tenant:
  root_domain: hemo.test
  scheme: http
  host: cilo.hemo.test
client:
  timeout: 3s
  retry_max: 1
session:
  backend: redis
  redis_addr: localhost:6379
`)
	t.Setenv("HEMO_CLIENT__RETRY_MAX", "4")
	t.Setenv("HEMO_SESSION__REDIS_DB", "2")

	cfg, err := LoadFrom(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, "hemo.test", cfg.Tenant.RootDomain)
	assert.Equal(t, "cilo.hemo.test", cfg.Tenant.Host)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 4, cfg.Client.RetryMax)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 2, cfg.Session.RedisDB)
}

func TestLoadFrom_ValidationFails(t *testing.T) {
	root := writeYAML(t, `
session:
  backend: sql
`)
	_, err := LoadFrom(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SQLDSN")
}

func TestLoadFrom_UnknownBackend(t *testing.T) {
	t.Setenv("HEMO_SESSION__BACKEND", "etcd")
	_, err := LoadFrom(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestLoadFrom_ResolvesVaultRefs(t *testing.T) {
	withResolver(t, fakeResolver{"vault:secret/hemo#dsn": "hemo:pw@tcp(db:3306)/hemo"})
	root := writeYAML(t, `
session:
  backend: sql
  sql_dsn: vault:secret/hemo#dsn
`)

	cfg, err := LoadFrom(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, "hemo:pw@tcp(db:3306)/hemo", cfg.Session.SQLDSN)
}

func TestLoadFrom_VaultFailureAborts(t *testing.T) {
	withResolver(t, fakeResolver{})
	t.Setenv("HEMO_SESSION__REDIS_PASSWORD", "vault:secret/hemo#missing")

	_, err := LoadFrom(context.Background(), t.TempDir())

	assert.ErrorContains(t, err, "no such secret")
}

func TestLoadFrom_NoRefsNeverDialsVault(t *testing.T) {
	prev := newResolver
	newResolver = func(context.Context) (SecretResolver, error) {
		t.Fatal("vault dialled without a reference")
		return nil, nil
	}
	t.Cleanup(func() { newResolver = prev })

	_, err := LoadFrom(context.Background(), t.TempDir())
	require.NoError(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "session.redis_addr", envKey("HEMO_SESSION__REDIS_ADDR"))
	assert.Equal(t, "tenant.root_domain", envKey("HEMO_TENANT__ROOT_DOMAIN"))
}

func TestRootDir_EnvWins(t *testing.T) {
	t.Setenv("HEMO_ROOT", "/srv/hemo")
	assert.Equal(t, "/srv/hemo", rootDir())
}
