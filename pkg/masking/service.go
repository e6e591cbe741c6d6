package masking

import (
	"log/slog"
	"strings"
)

// Service redacts sensitive values out of network events before they reach
// an LLM prompt or a serialized WorkflowDefinition (spec §6 LLM gateway,
// §3 invariant 7, §7.6 "sensitive values never appear in messages").
//
// Created once at application startup (singleton). Thread-safe and stateless
// aside from compiled body-sweep patterns.
type Service struct {
	bodyPatterns []*CompiledPattern
	codeMaskers  map[string]Masker
}

// NewService creates a masking service with its body-sweep patterns compiled
// eagerly and the cookie-pair masker registered.
func NewService() *Service {
	s := &Service{
		bodyPatterns: builtinBodyPatterns(),
		codeMaskers:  make(map[string]Masker),
	}
	s.registerMasker(&CookiePairMasker{})

	slog.Info("masking service initialized",
		"body_patterns", len(s.bodyPatterns),
		"code_maskers", len(s.codeMaskers))

	return s
}

// registerMasker registers a code-based masker by its name.
func (s *Service) registerMasker(m Masker) {
	s.codeMaskers[m.Name()] = m
}

// RedactValue applies the gateway's value-redaction rule: a bearer token is
// shown as "Bearer [REDACTED_TOKEN]"; any other value longer than 8 bytes is
// shown as its first 8 bytes followed by "...[REDACTED]"; shorter values are
// fully redacted since there is no safe prefix to keep.
func (s *Service) RedactValue(value string) string {
	return redactValue(value)
}

// redactValue is the free-function form of Service.RedactValue, shared with
// CookiePairMasker which has no Service to call through.
func redactValue(value string) string {
	if value == "" {
		return value
	}
	if rest, ok := strings.CutPrefix(value, "Bearer "); ok && rest != "" {
		return "Bearer [REDACTED_TOKEN]"
	}
	if len(value) > 8 {
		return value[:8] + "...[REDACTED]"
	}
	return "[REDACTED]"
}

// RedactHeaders returns a copy of headers with every sensitive header's
// value (spec §6: authorization, cookie, set-cookie, x-api-key,
// x-auth-token, csrf tokens) replaced per RedactValue, and the cookie header
// additionally pried apart so each individual cookie's value is redacted
// rather than the whole header collapsing to one opaque placeholder.
func (s *Service) RedactHeaders(headers map[string]string) map[string]string {
	redacted := make(map[string]string, len(headers))
	for name, value := range headers {
		lower := strings.ToLower(name)
		switch {
		case lower == "cookie" || lower == "set-cookie":
			if masker := s.codeMaskers[cookiePairMaskerName]; masker != nil && masker.AppliesTo(value) {
				redacted[name] = masker.Mask(value)
			} else {
				redacted[name] = s.RedactValue(value)
			}
		case IsSensitiveHeader(name):
			redacted[name] = s.RedactValue(value)
		default:
			redacted[name] = value
		}
	}
	return redacted
}

// RedactBody sweeps free-text request/response bodies for credential-shaped
// substrings that header-level redaction wouldn't catch (a token echoed back
// inside a JSON body, for instance). Fails open: a body that cannot be safely
// processed is returned unchanged rather than silently dropped, because the
// caller already redacted headers and this is a best-effort second pass over
// opaque text.
func (s *Service) RedactBody(body string) string {
	if body == "" {
		return body
	}
	redacted := body
	for _, pattern := range s.bodyPatterns {
		redacted = pattern.Regex.ReplaceAllString(redacted, pattern.Replacement)
	}
	return redacted
}
