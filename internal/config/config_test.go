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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  user: reader
  dbname: readwise
api:
  token: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "https://readwise.io/api/v3/list/", cfg.API.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.API.RetryAfterFallback)
	assert.Equal(t, 30*time.Second, cfg.API.TransportRetryWait)
	assert.Equal(t, time.Duration(0), cfg.Sync.Interval)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_MissingToken(t *testing.T) {
	path := writeConfig(t, `
database:
  user: reader
  dbname: readwise
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.token")
}

func TestLoad_MissingDatabase(t *testing.T) {
	path := writeConfig(t, `
api:
  token: secret
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database")
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_READER_TOKEN", "from-env")

	path := writeConfig(t, `
database:
  user: reader
  dbname: readwise
api:
  token: ${TEST_READER_TOKEN}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.API.Token)
}

func TestLoad_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		User:     "reader",
		Password: "pw",
		DBName:   "readwise",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.example.com port=5433 user=reader password=pw dbname=readwise sslmode=require",
		cfg.DSN(),
	)
}
