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

func writeConf(t *testing.T, root, name, body string) {
	t.Helper()
	dir := filepath.Join(root, "conf")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadFrom_Defaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := LoadFrom(root)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, SourceFile, cfg.Source.Kind)
	assert.Equal(t, filepath.Join(root, "domains.toml"), cfg.Source.File)
	assert.True(t, cfg.Source.Watch)
	assert.Equal(t, time.Minute, cfg.Source.PollInterval)
	assert.Equal(t, filepath.Join(root, "logs"), cfg.Log.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1024, cfg.Cache.Size)
	assert.Equal(t, "", cfg.GeoIP.Path)
	assert.Same(t, cfg, Get())
}

func TestLoadFrom_YAMLAndEnvOverlay(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, FileName, `
http:
  listen_addr: "127.0.0.1:9000"
source:
  kind: mysql
  poll_interval: 30s
database:
  dsn: "autoconfig@tcp(db:3306)/mail"
log:
  level: debug
`)
	t.Setenv("AUTOCONFIG_HTTP__LISTEN_ADDR", "0.0.0.0:9100")
	t.Setenv("AUTOCONFIG_CACHE__SIZE", "16")

	cfg, err := LoadFrom(root)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9100", cfg.HTTP.ListenAddr)
	assert.Equal(t, SourceMySQL, cfg.Source.Kind)
	assert.Equal(t, 30*time.Second, cfg.Source.PollInterval)
	assert.Equal(t, "autoconfig@tcp(db:3306)/mail", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 16, cfg.Cache.Size)
}

func TestLoadFrom_DotEnv(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, ".env", "AUTOCONFIG_GEOIP__PATH=geo/city.mmdb\n")
	t.Cleanup(func() { os.Unsetenv("AUTOCONFIG_GEOIP__PATH") })

	cfg, err := LoadFrom(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "geo", "city.mmdb"), cfg.GeoIP.Path)
}

func TestLoadFrom_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad listen addr", "http:\n  listen_addr: \"nope\"\n"},
		{"unknown source", "source:\n  kind: ldap\n"},
		{"mysql without dsn", "source:\n  kind: mysql\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"negative cache", "cache:\n  size: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeConf(t, root, FileName, tt.yaml)
			_, err := LoadFrom(root)
			assert.Error(t, err)
		})
	}
}

func TestLoadFrom_BrokenYAML(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, FileName, "http: [unterminated\n")

	_, err := LoadFrom(root)
	assert.Error(t, err)
}

func TestNormalizeEnvKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AUTOCONFIG_HTTP__LISTEN_ADDR", "http.listen_addr"},
		{"AUTOCONFIG_SOURCE__POLL_INTERVAL", "source.poll_interval"},
		{"AUTOCONFIG_ROOT", "root"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeEnvKey(tt.input), tt.input)
	}
}

func TestRootDir_EnvOverride(t *testing.T) {
	t.Setenv("AUTOCONFIG_ROOT", "/srv/autoconfig")
	assert.Equal(t, "/srv/autoconfig", rootDir())
}

// =============================================================================
// Secrets
// =============================================================================

type fakeVault map[string]string

func (f fakeVault) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	v, ok := f[path+"#"+key]
	if !ok {
		return "", errors.New("no such secret")
	}
	return v, nil
}

func TestResolveSecrets(t *testing.T) {
	t.Parallel()

	cfg := &Config{Database: Database{
		DSN:      "autoconfig@tcp(db:3306)/mail",
		Password: "vault:secret/autoconfig#db_password",
	}}
	require.True(t, cfg.HasSecretRefs())

	err := cfg.ResolveSecrets(context.Background(), fakeVault{"secret/autoconfig#db_password": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "autoconfig@tcp(db:3306)/mail", cfg.Database.DSN)
	assert.False(t, cfg.HasSecretRefs())
}

func TestResolveSecrets_Errors(t *testing.T) {
	t.Parallel()

	cfg := &Config{Database: Database{Password: "vault:secret/autoconfig"}}
	assert.Error(t, cfg.ResolveSecrets(context.Background(), fakeVault{}))

	cfg = &Config{Database: Database{Password: "vault:secret/autoconfig#missing"}}
	assert.Error(t, cfg.ResolveSecrets(context.Background(), fakeVault{}))
}
