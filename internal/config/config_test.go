package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "melonotes.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MELONOTES_JWT_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":5001", cfg.Listen)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "melonotes.db", cfg.SQLite.Path)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
listen = ":8080"
backend = "surreal"
uploads_dir = "/var/lib/melonotes/uploads"
log_level = "debug"

[auth]
secret = "file-secret"
token_ttl = "12h"

[surreal]
url = "ws://db:8000/rpc"
namespace = "prod"
database = "notes"
username = "root"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, BackendSurreal, cfg.Backend)
	assert.Equal(t, "file-secret", cfg.Auth.Secret)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL())
	assert.Equal(t, "ws://db:8000/rpc", cfg.Surreal.URL)
	assert.Equal(t, "prod", cfg.Surreal.Namespace)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("MELONOTES_JWT_SECRET", "env-secret")
	t.Setenv("MELONOTES_SURREAL_PASSWORD", "env-pass")

	path := writeConfig(t, `
[auth]
secret = "file-secret"

[surreal]
password = "file-pass"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
	assert.Equal(t, "env-pass", cfg.Surreal.Password)
}

func TestLoadRejectsMalformed(t *testing.T) {
	path := writeConfig(t, `listen = [broken`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("MELONOTES_JWT_SECRET", "s")

	path := writeConfig(t, `backend = "couchbase"`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown backend")

	t.Setenv("MELONOTES_JWT_SECRET", "")
	path = writeConfig(t, `backend = "sqlite"`)
	_, err = Load(path)
	assert.ErrorContains(t, err, "auth secret")
}
