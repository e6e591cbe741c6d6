package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		LLM:        DefaultLLMConfig(),
		Playback:   DefaultPlaybackConfig(),
		Repository: DefaultRepositoryConfig(),
		Server:     DefaultServerConfig(),
	}
}

func TestValidateAllAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.ProxyURL = "https://llm-proxy.internal"

	err := NewValidator(cfg).ValidateAll()
	require.NoError(t, err)
}

func TestValidateLLMCredentialMissing(t *testing.T) {
	cfg := validConfig()

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLLMCredentialMissing)
}

func TestValidateLLMAPIKeyEnvNotSet(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.APIKeyEnv = "DOES_NOT_EXIST_12345"

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOES_NOT_EXIST_12345")
}

func TestValidatePlaybackBounds(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PlaybackConfig)
		wantErr bool
	}{
		{"zero max actions", func(p *PlaybackConfig) { p.MaxActions = 0 }, true},
		{"negative max retries", func(p *PlaybackConfig) { p.MaxRetries = -1 }, true},
		{"zero page size", func(p *PlaybackConfig) { p.InsightPageSize = 0 }, true},
		{"valid", func(p *PlaybackConfig) {}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.LLM.ProxyURL = "https://llm-proxy.internal"
			tt.mutate(cfg.Playback)

			err := NewValidator(cfg).ValidateAll()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRepositoryDriver(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.ProxyURL = "https://llm-proxy.internal"
	cfg.Repository.Driver = "mysql"

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}
