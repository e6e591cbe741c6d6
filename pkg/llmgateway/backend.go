package llmgateway

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// CompletionRequest is one multimodal call to an underlying LLM: a system
// prompt, a user prompt, and optional images for vision calls (spec §6 "LLM
// gateway... accepts a system prompt + user prompt (multimodal for vision
// calls)").
type CompletionRequest struct {
	System string
	Prompt string
	Images [][]byte // PNG bytes, used by playback's next-action calls
}

// Backend is the seam between the gateway and a concrete LLM provider. It is
// exported so tests can substitute a scriptable fake without touching
// network (spec §9: "every LLM call has a deterministic heuristic fallback").
type Backend interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// TransientError wraps a backend failure the gateway should retry (spec §5
// "Timeouts & retries": rate-limit, overloaded signals).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient LLM error: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// AnthropicBackend is the concrete multimodal backend used in production.
type AnthropicBackend struct {
	client anthropic.Client
	model  string
}

// NewAnthropicBackend creates a backend for the given model, authenticating
// either with a direct API key or, when proxyURL is set, through the proxy
// (spec §6 configuration table: "LLM proxy URL... supplies a placeholder
// credential; the proxy authenticates on the core's behalf").
func NewAnthropicBackend(apiKey, proxyURL, model string) *AnthropicBackend {
	opts := []option.RequestOption{}
	if proxyURL != "" {
		opts = append(opts, option.WithBaseURL(proxyURL), option.WithAPIKey("proxy-managed"))
	} else {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	return &AnthropicBackend{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Complete issues one message-create call, optionally attaching images as
// base64 content blocks ahead of the text prompt.
func (b *AnthropicBackend) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Images)+1)
	for _, img := range req.Images {
		blocks = append(blocks, anthropic.NewImageBlockBase64("image/png", base64.StdEncoding.EncodeToString(img)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: 4096,
		System:    []anthropic.TextBlockParam{{Text: req.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		if isTransient(err) {
			return "", &TransientError{Err: err}
		}
		return "", err
	}

	var out string
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			out += text.Text
		}
	}
	return out, nil
}

// isTransient classifies an Anthropic API error as retryable. Rate-limit and
// overload signals retry; everything else (auth, schema, bad request)
// surfaces immediately (spec §5, §7 "LLM transient" vs "LLM permanent").
func isTransient(err error) bool {
	var apiErr *anthropic.Error
	if asAnthropicError(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 529:
			return true
		}
	}
	return false
}

func asAnthropicError(err error, target **anthropic.Error) bool {
	apiErr, ok := err.(*anthropic.Error)
	if ok {
		*target = apiErr
	}
	return ok
}
