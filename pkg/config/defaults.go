package config

import "time"

// LLMConfig carries the LLM gateway's credential, proxy, model, and retry
// options (spec §6 Configuration table: "LLM credential", "LLM proxy URL").
type LLMConfig struct {
	// APIKeyEnv names the environment variable holding the direct API key.
	// Absence of both this and ProxyURL causes every LLM-dependent stage to
	// fail fast with a diagnostic (spec §7 "Credential missing").
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// ProxyURL, when set, overrides the LLM endpoint and supplies a
	// placeholder credential — the proxy authenticates on the core's behalf.
	ProxyURL string `yaml:"proxy_url,omitempty"`

	// Model names the vision-capable model used for every gateway function.
	Model string `yaml:"model,omitempty"`

	// MaxRetries bounds the gateway's retry-with-backoff loop: up to
	// MaxRetries retries after the first attempt (default 3, so at most 4
	// calls), exponential backoff base 1s, doubling.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// BackoffBase is the initial delay before the first retry; each
	// subsequent retry doubles it.
	BackoffBase time.Duration `yaml:"backoff_base,omitempty"`
}

// PlaybackConfig carries the intelligent playback loop's bounds (spec §4.7).
type PlaybackConfig struct {
	// MaxActions is the hard ceiling on loop iterations in a single playback
	// run; a run that reaches it without a terminal decision ends with
	// outcome partial.
	MaxActions int `yaml:"max_actions,omitempty"`

	// MaxRetries is the number of consecutive failed actions after which the
	// run ends with outcome failed. Recovery mode is used on every iteration
	// that follows a failed action, independently of this bound.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// InsightPageSize bounds how many PlaybackLogEntry insights
	// listInsightsBySitePattern returns per call (spec §6 Repository).
	InsightPageSize int `yaml:"insight_page_size,omitempty"`
}

// RepositoryConfig selects and configures the Repository backend (spec §6).
type RepositoryConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `yaml:"driver,omitempty"`

	// DSN is the driver-specific connection string (a Postgres connection
	// URL, or a file path / ":memory:" for sqlite).
	DSN string `yaml:"dsn,omitempty"`
}

// ServerConfig carries the internal ops surface's listen address.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// DefaultLLMConfig returns the LLM gateway's zero-config defaults.
func DefaultLLMConfig() *LLMConfig {
	return &LLMConfig{
		Model:       "claude-sonnet-4-5",
		MaxRetries:  3,
		BackoffBase: 1 * time.Second,
	}
}

// DefaultPlaybackConfig returns the playback loop's zero-config defaults.
func DefaultPlaybackConfig() *PlaybackConfig {
	return &PlaybackConfig{
		MaxActions:      100,
		MaxRetries:      3,
		InsightPageSize: 10,
	}
}

// DefaultRepositoryConfig returns the embedded-sqlite fallback used when no
// Postgres DSN is configured (local/offline development).
func DefaultRepositoryConfig() *RepositoryConfig {
	return &RepositoryConfig{
		Driver: "sqlite",
		DSN:    "workflow-core.db",
	}
}

// DefaultServerConfig returns the ops surface's default listen address.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{Addr: ":8080"}
}
