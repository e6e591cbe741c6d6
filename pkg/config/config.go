package config

// Config is the umbrella configuration object returned by Load and used
// throughout the application: the LLM gateway's credentials and retry
// policy, the playback loop's bounds, the repository backend, and the
// internal ops server's listen address.
type Config struct {
	configDir string // Configuration directory path (for reference)

	LLM        *LLMConfig
	Playback   *PlaybackConfig
	Repository *RepositoryConfig
	Server     *ServerConfig
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}
