package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the complete workflow-core.yaml file structure.
type YAMLConfig struct {
	LLM        *LLMConfig        `yaml:"llm"`
	Playback   *PlaybackConfig   `yaml:"playback"`
	Repository *RepositoryConfig `yaml:"repository"`
	Server     *ServerConfig     `yaml:"server"`
}

// Load loads, validates, and returns ready-to-use configuration. This is the
// primary entry point for configuration loading.
//
// Steps performed:
//  1. Load workflow-core.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge user-defined values over built-in defaults
//  5. Validate all configuration
//  6. Return Config ready for use
func Load(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("loading configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := NewValidator(cfg).ValidateAll(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration loaded successfully",
		"llm_model", cfg.LLM.Model,
		"repository_driver", cfg.Repository.Driver,
		"playback_max_actions", cfg.Playback.MaxActions)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadWorkflowCoreYAML()
	if err != nil {
		return nil, NewLoadError("workflow-core.yaml", err)
	}

	llm := DefaultLLMConfig()
	if yamlCfg.LLM != nil {
		if err := mergo.Merge(llm, yamlCfg.LLM, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge llm config: %w", err)
		}
	}

	playback := DefaultPlaybackConfig()
	if yamlCfg.Playback != nil {
		if err := mergo.Merge(playback, yamlCfg.Playback, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge playback config: %w", err)
		}
	}

	repository := DefaultRepositoryConfig()
	if yamlCfg.Repository != nil {
		if err := mergo.Merge(repository, yamlCfg.Repository, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge repository config: %w", err)
		}
	}

	server := DefaultServerConfig()
	if yamlCfg.Server != nil {
		if err := mergo.Merge(server, yamlCfg.Server, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge server config: %w", err)
		}
	}

	return &Config{
		configDir:  configDir,
		LLM:        llm,
		Playback:   playback,
		Repository: repository,
		Server:     server,
	}, nil
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand ${VAR}/$VAR tokens before parsing; missing vars expand to
	// empty string, caught later by validation rather than here.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

// loadWorkflowCoreYAML loads workflow-core.yaml. A missing file is not an
// error: all fields fall back to their built-in defaults, and an absent LLM
// credential is caught later by Validator (spec §7 "Credential missing").
func (l *configLoader) loadWorkflowCoreYAML() (*YAMLConfig, error) {
	var cfg YAMLConfig
	err := l.loadYAML("workflow-core.yaml", &cfg)
	if err != nil && errors.Is(err, ErrConfigNotFound) {
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
