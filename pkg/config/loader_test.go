package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "workflow-core.yaml"), []byte(content), 0o644))
}

func TestLoadAppliesDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()

	// load (not Load): the defaults alone name no LLM credential, which the
	// validator run by Load rejects with ErrLLMCredentialMissing.
	cfg, err := load(dir)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Playback.MaxActions)
	assert.Equal(t, 3, cfg.Playback.MaxRetries)
	assert.Equal(t, 10, cfg.Playback.InsightPageSize)
	assert.Equal(t, "sqlite", cfg.Repository.Driver)
}

func TestLoadMergesUserYAMLOverDefaults(t *testing.T) {
	t.Setenv("WORKFLOW_CORE_API_KEY", "test-key")
	dir := t.TempDir()
	writeYAML(t, dir, `
llm:
  api_key_env: WORKFLOW_CORE_API_KEY
  model: claude-opus-4
playback:
  max_actions: 25
repository:
  driver: postgres
  dsn: postgres://localhost/workflow_core
`)

	cfg, err := Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "claude-opus-4", cfg.LLM.Model)
	assert.Equal(t, 25, cfg.Playback.MaxActions)
	assert.Equal(t, 10, cfg.Playback.InsightPageSize, "unset fields keep their default")
	assert.Equal(t, "postgres", cfg.Repository.Driver)
}

func TestLoadFailsFastOnMissingCredential(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, `
llm:
  model: claude-opus-4
`)

	_, err := Load(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLLMCredentialMissing)
}

func TestLoadAcceptsProxyWithoutAPIKey(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, `
llm:
  proxy_url: https://llm-proxy.internal
`)

	cfg, err := Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "https://llm-proxy.internal", cfg.LLM.ProxyURL)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "llm: [this is not a mapping")

	_, err := Load(context.Background(), dir)
	require.Error(t, err)
}
