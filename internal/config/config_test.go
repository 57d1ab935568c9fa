package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mediacatalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  type: postgres
  host: db.internal
auth:
  admin_emails: ["root@example.com"]
`), 0644))

	t.Setenv("POSTGRES_DB", "catalog_test")
	t.Setenv("MEDIACATALOG_SESSION_TIMEOUT", "2h")

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(path))

	cfg := cm.GetConfig()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "catalog_test", cfg.Database.Database)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTimeout)
	assert.Equal(t, []string{"root@example.com"}, cfg.Auth.AdminEmails)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxFileSize)
	assert.Empty(t, cfg.Database.DatabasePath, "postgres does not derive a sqlite path")
}

func TestLoadConfigDerivesSQLitePath(t *testing.T) {
	t.Setenv("MEDIACATALOG_DATA_DIR", "/tmp/catalog")

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(""))

	cfg := cm.GetConfig()
	assert.Equal(t, "/tmp/catalog/mediacatalog.db", cfg.Database.DatabasePath)
	assert.Equal(t, "/tmp/catalog/uploads", cfg.Uploads.LocalDir)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "mongodb")

	cm := NewConfigManager()
	err := cm.LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestEnvSliceParsing(t *testing.T) {
	t.Setenv("MEDIACATALOG_ADMIN_EMAILS", " a@example.com, ,B@example.com ")

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(""))
	assert.Equal(t, []string{"a@example.com", "B@example.com"}, cm.GetConfig().Auth.AdminEmails)
}

func TestIsAdminEmailReadsLiveConfig(t *testing.T) {
	cm := GetConfigManager()
	original := cm.GetConfig().Auth.AdminEmails
	t.Cleanup(func() {
		cm.Update(func(c *Config) { c.Auth.AdminEmails = original })
	})

	cm.Update(func(c *Config) { c.Auth.AdminEmails = []string{"Owner@Example.com"} })
	assert.True(t, IsAdminEmail("owner@example.com"))
	assert.False(t, IsAdminEmail("guest@example.com"))
	assert.False(t, IsAdminEmail(""))

	cm.Update(func(c *Config) { c.Auth.AdminEmails = nil })
	assert.False(t, IsAdminEmail("owner@example.com"))
}
