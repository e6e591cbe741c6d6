package config

import (
	"fmt"
	"os"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at the
// first error), in dependency order: LLM before playback, since playback
// decisions flow through the same gateway.
func (v *Validator) ValidateAll() error {
	if err := v.validateLLM(); err != nil {
		return fmt.Errorf("llm validation failed: %w", err)
	}

	if err := v.validatePlayback(); err != nil {
		return fmt.Errorf("playback validation failed: %w", err)
	}

	if err := v.validateRepository(); err != nil {
		return fmt.Errorf("repository validation failed: %w", err)
	}

	if err := v.validateServer(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}

	return nil
}

func (v *Validator) validateLLM() error {
	llm := v.cfg.LLM
	if llm == nil {
		return fmt.Errorf("llm configuration is nil")
	}

	// Spec §7 "Credential missing": absence of both a direct API key and a
	// proxy URL must fail fast with a diagnostic, since every LLM-dependent
	// stage would otherwise fail one at a time with the same root cause.
	if llm.ProxyURL == "" {
		if llm.APIKeyEnv == "" {
			return ErrLLMCredentialMissing
		}
		if value := os.Getenv(llm.APIKeyEnv); value == "" {
			return NewValidationError("llm", "", "api_key_env", fmt.Errorf("environment variable %s is not set", llm.APIKeyEnv))
		}
	}

	if llm.Model == "" {
		return NewValidationError("llm", "", "model", fmt.Errorf("model required"))
	}
	if llm.MaxRetries < 0 {
		return NewValidationError("llm", "", "max_retries", fmt.Errorf("must be non-negative"))
	}
	if llm.BackoffBase <= 0 {
		return NewValidationError("llm", "", "backoff_base", fmt.Errorf("must be positive"))
	}

	return nil
}

func (v *Validator) validatePlayback() error {
	p := v.cfg.Playback
	if p == nil {
		return fmt.Errorf("playback configuration is nil")
	}

	if p.MaxActions < 1 {
		return NewValidationError("playback", "", "max_actions", fmt.Errorf("must be at least 1"))
	}
	if p.MaxRetries < 0 {
		return NewValidationError("playback", "", "max_retries", fmt.Errorf("must be non-negative"))
	}
	if p.InsightPageSize < 1 {
		return NewValidationError("playback", "", "insight_page_size", fmt.Errorf("must be at least 1"))
	}

	return nil
}

func (v *Validator) validateRepository() error {
	r := v.cfg.Repository
	if r == nil {
		return fmt.Errorf("repository configuration is nil")
	}

	switch r.Driver {
	case "postgres", "sqlite":
	default:
		return NewValidationError("repository", "", "driver", fmt.Errorf("must be 'postgres' or 'sqlite', got %q", r.Driver))
	}

	if r.DSN == "" {
		return NewValidationError("repository", "", "dsn", fmt.Errorf("required"))
	}

	return nil
}

func (v *Validator) validateServer() error {
	s := v.cfg.Server
	if s == nil {
		return fmt.Errorf("server configuration is nil")
	}
	if s.Addr == "" {
		return NewValidationError("server", "", "addr", fmt.Errorf("required"))
	}
	return nil
}
