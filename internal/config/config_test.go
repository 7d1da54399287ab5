package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: 9090
database:
  connection_string: "postgres://localhost/archon"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "your-secret-key", cfg.Auth.SecretKey)
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 30, cfg.Auth.AccessExpiryMin)
	assert.Equal(t, 5, cfg.Ingestion.ArchiveMaxDepth)
	assert.Equal(t, 4, cfg.Ingestion.Workers)
	assert.Equal(t, 500, cfg.Ingestion.ChunkSize)
	assert.Equal(t, 50, cfg.Ingestion.ChunkOverlap)
	assert.Equal(t, "cosine", cfg.VectorIndex.Metric)
	assert.Equal(t, "archon", cfg.OTel.ServiceName)
	assert.Equal(t, "fr", cfg.Chat.Locale)
}

func TestLoadPreservesExplicitValues(t *testing.T) {
	path := writeTempConfig(t, `
auth:
  secret_key: "explicit-secret"
  algorithm: "HS512"
chat:
  locale: "en"
rerank:
  enabled: true
  top_n: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "explicit-secret", cfg.Auth.SecretKey)
	assert.Equal(t, "HS512", cfg.Auth.Algorithm)
	assert.Equal(t, "en", cfg.Chat.Locale)
	assert.True(t, cfg.Rerank.Enabled)
	assert.Equal(t, 5, cfg.Rerank.TopN)
	assert.Equal(t, 8, cfg.Rerank.TopKOut)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
