package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
env: "dev"
http_server:
  address: "localhost:8082"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "localhost:8082", cfg.HTTPServer.Addr)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, ":memory:", cfg.Storage.Path)
	assert.Equal(t, "./uploads", cfg.UploadRoot)
}

func TestLoadReadsEveryKey(t *testing.T) {
	path := writeConfig(t, `
env: "prod"
storage:
  backend: "sqlite"
  path: "file:students?mode=memory"
upload_root: "/srv/uploads"
http_server:
  address: "0.0.0.0:9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "file:students?mode=memory", cfg.Storage.Path)
	assert.Equal(t, "/srv/uploads", cfg.UploadRoot)
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTPServer.Addr)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
env: "dev"
upload_root: "/from/file"
http_server:
  address: "localhost:8082"
`)
	t.Setenv("UPLOAD_ROOT", "/from/env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.UploadRoot)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
env: "dev"
storage:
  backend: "postgres"
http_server:
  address: "localhost:8082"
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestLoadRequiresAddress(t *testing.T) {
	path := writeConfig(t, `env: "dev"`)

	_, err := Load(path)
	assert.Error(t, err)
}
