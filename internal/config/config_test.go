package config

import (
	"os"
	"path/filepath"
	"testing"

	"postavka/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  name: postavka
  environment: test
database:
  path: /tmp/postavka.db
api:
  enabled: true
  auth:
    api_keys:
      - key: secret
        name: ops
        permissions: ["read", "write"]
catalog:
  enabled: true
  base_url: http://catalog.local
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postavka", cfg.App.Name)
	assert.Equal(t, "/tmp/postavka.db", cfg.Database.Path)
	assert.True(t, cfg.API.HTTP.Enabled, "http enabled by default when api is enabled")
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, models.DefaultCatalogSyncMinutes, cfg.Catalog.SyncMinutes)
	assert.Equal(t, 5, cfg.Worker.MaxRetries)
	assert.Equal(t, float64(2), cfg.Worker.BackoffFactor)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("POSTAVKA_DB_PATH", "/data/ledger.db")

	path := writeConfig(t, `
database:
  path: ${POSTAVKA_DB_PATH}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/ledger.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	t.Run("DatabasePathRequired", func(t *testing.T) {
		path := writeConfig(t, `
app:
  name: postavka
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database path")
	})

	t.Run("CatalogURLRequired", func(t *testing.T) {
		path := writeConfig(t, `
database:
  path: /tmp/postavka.db
catalog:
  enabled: true
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog base_url")
	})

	t.Run("APIKeysRequired", func(t *testing.T) {
		path := writeConfig(t, `
database:
  path: /tmp/postavka.db
api:
  enabled: true
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api keys")
	})
}

func TestValidateVendors(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		err := ValidateVendors([]*models.Vendor{
			{ID: 1, Name: "Light & Sound"},
			{ID: 2, Name: "Catering Plus"},
		})
		assert.NoError(t, err)
	})

	t.Run("ZeroID", func(t *testing.T) {
		err := ValidateVendors([]*models.Vendor{{ID: 0, Name: "Ghost"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid ID 0")
	})

	t.Run("DuplicateID", func(t *testing.T) {
		err := ValidateVendors([]*models.Vendor{
			{ID: 1, Name: "A"},
			{ID: 1, Name: "B"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate vendor ID")
	})
}
