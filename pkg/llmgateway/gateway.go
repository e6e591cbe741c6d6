package llmgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/flowscribe/workflow-core/pkg/config"
	"github.com/flowscribe/workflow-core/pkg/masking"
	"github.com/flowscribe/workflow-core/pkg/metrics"
)

// ErrCredentialMissing is returned by every gateway call when neither an API
// key nor a proxy URL was configured (spec §7 "Credential missing").
var ErrCredentialMissing = errors.New("llm gateway: credential missing, set api_key_env or proxy_url")

// Gateway is the process-wide seam between pipeline/playback stages and the
// underlying LLM (spec §6 "LLM gateway"). Its backend client is built once,
// eagerly, in New from the configuration passed there; it is not rebuilt
// when the configured credentials change afterwards.
type Gateway struct {
	backend     Backend
	masker      *masking.Service
	maxRetries  int
	backoffBase time.Duration
	credOK      bool
}

// New builds a Gateway from configuration, selecting an AnthropicBackend
// unless an override backend is supplied (tests inject a fake).
func New(cfg *config.LLMConfig, masker *masking.Service, backend Backend) (*Gateway, error) {
	credOK := cfg.ProxyURL != "" || apiKeyFromEnv(cfg.APIKeyEnv) != ""
	if backend == nil {
		if !credOK {
			return nil, ErrCredentialMissing
		}
		backend = NewAnthropicBackend(apiKeyFromEnv(cfg.APIKeyEnv), cfg.ProxyURL, cfg.Model)
	}

	return &Gateway{
		backend:     backend,
		masker:      masker,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		credOK:      credOK,
	}, nil
}

func apiKeyFromEnv(envVar string) string {
	if envVar == "" {
		return ""
	}
	return envGetter(envVar)
}

// envGetter is a var so tests can stub environment lookups.
var envGetter = os.Getenv

// callJSON issues one structured-output call with retry/backoff, extracts
// the JSON payload from the response, and unmarshals it into out. It never
// retries a permanent failure (spec §7 kind 4 "LLM permanent"): the caller
// is expected to fall back to its heuristic path on any returned error.
func (g *Gateway) callJSON(ctx context.Context, function, system, prompt string, images [][]byte, out any) error {
	if !g.credOK {
		metrics.LLMRequestsTotal.WithLabelValues(function, "degraded").Inc()
		return ErrCredentialMissing
	}

	var lastErr error
	backoff := g.backoffBase
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				metrics.LLMRequestsTotal.WithLabelValues(function, "error").Inc()
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		raw, err := g.backend.Complete(ctx, CompletionRequest{System: system, Prompt: prompt, Images: images})
		if err == nil {
			payload, extractErr := extractJSON(raw)
			if extractErr != nil {
				metrics.LLMRequestsTotal.WithLabelValues(function, "error").Inc()
				return fmt.Errorf("llm gateway: %w", extractErr)
			}
			if err := json.Unmarshal(payload, out); err != nil {
				metrics.LLMRequestsTotal.WithLabelValues(function, "error").Inc()
				return fmt.Errorf("llm gateway: unmarshal response: %w", err)
			}
			metrics.LLMRequestsTotal.WithLabelValues(function, "ok").Inc()
			return nil
		}

		lastErr = err
		var transient *TransientError
		if !errors.As(err, &transient) {
			slog.Warn("llm call failed permanently", "error", err)
			metrics.LLMRequestsTotal.WithLabelValues(function, "error").Inc()
			return err
		}
		slog.Warn("llm call failed transiently, retrying", "attempt", attempt, "error", err)
	}

	metrics.LLMRequestsTotal.WithLabelValues(function, "error").Inc()
	return fmt.Errorf("llm gateway: exhausted %d retries: %w", g.maxRetries, lastErr)
}

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSON pulls a JSON payload out of a raw LLM response, tolerating a
// fenced code block or a plain JSON body (spec §6: "parses JSON out of the
// response (tolerating fenced code blocks and plain JSON bodies)").
func extractJSON(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if m := fencedJSONPattern.FindStringSubmatch(trimmed); m != nil {
		trimmed = strings.TrimSpace(m[1])
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("no valid JSON found in response")
	}
	return json.RawMessage(trimmed), nil
}

// redactHeadersForPrompt is shared by every gateway function that forwards
// captured network events into a prompt (spec §6: "redacts sensitive
// headers... before forming prompts").
func (g *Gateway) redactHeadersForPrompt(headers map[string]string) map[string]string {
	return g.masker.RedactHeaders(headers)
}
