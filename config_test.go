package main

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
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func Test_ReadConfig(t *testing.T) {
	t.Setenv("TEST_TEAM_TOKEN", "sekrit")

	path := writeConfig(t, `
server_addr: ":9000"
auth_token: "${TEST_TEAM_TOKEN}"
chroma_addr: "http://localhost:8001"
chunk_words: 250
embedding:
  endpoint: "https://example.openai.azure.com"
  api_key: "ek"
  deployment: "text-embedding-3-large"
chat:
  endpoint: "https://example.openai.azure.com"
  api_key: "ck"
  deployment: "gpt-4-1"
`)

	cfg, err := readConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ServerAddr)
	assert.Equal(t, "sekrit", cfg.AuthToken)
	assert.Equal(t, 250, cfg.ChunkWords)
	assert.Empty(t, cfg.Missing())
}

func Test_ReadConfig_Defaults(t *testing.T) {
	cfg, err := readConfig(writeConfig(t, "log: test.log\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.ServerAddr)
	assert.Equal(t, 500, cfg.ChunkWords)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 30, cfg.DownloadTimeoutS)
	assert.Equal(t, "2024-02-15-preview", cfg.Embedding.APIVersion)
}

func Test_ReadConfig_Missing(t *testing.T) {
	cfg, err := readConfig(writeConfig(t, `
auth_token: "t"
chroma_addr: "http://localhost:8001"
embedding:
  endpoint: "https://example.openai.azure.com"
  api_key: "ek"
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"chat.endpoint", "chat.api_key"}, cfg.Missing())
}

func Test_ReadConfig_BadFile(t *testing.T) {
	_, err := readConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = readConfig(writeConfig(t, "{not yaml"))
	assert.Error(t, err)
}
