package masking

import (
	"regexp"
	"strings"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement,
// used for a free-text sweep over request/response bodies where a sensitive
// value might appear outside of a named header or cookie.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Description string
}

// sensitiveHeaders is the closed set of header names whose values must never
// reach an LLM prompt or a serialized WorkflowDefinition.
var sensitiveHeaders = map[string]bool{
	"authorization":  true,
	"cookie":         true,
	"set-cookie":     true,
	"x-api-key":      true,
	"x-auth-token":   true,
	"x-csrf-token":   true,
	"x-xsrf-token":   true,
	"csrf-token":     true,
	"x-csrftoken":    true,
}

// sessionCookieNamePatterns are cookie names that, when consistently present
// across sessions, indicate a cookie-based auth scheme (spec §4.5 AuthDetector).
var sessionCookieNamePatterns = []string{
	"session", "sessionid", "sid", "connect.sid", "jsessionid", "phpsessid", "_session",
}

// authAdjacentQueryParams are query parameter names that, when consistently
// present, are candidate credential slots for an api_key auth pattern.
var authAdjacentQueryParams = map[string]bool{
	"key": true, "api_key": true, "token": true, "access_token": true, "auth": true,
}

// builtinBodyPatterns sweep free-text bodies for opaque credential-shaped
// values that heuristics over header names alone would miss.
func builtinBodyPatterns() []*CompiledPattern {
	return []*CompiledPattern{
		{
			Name:        "authorization_header_value",
			Regex:       regexp.MustCompile(`(?i)(authorization["':\s]+)(Bearer\s+)([A-Za-z0-9._\-]+)`),
			Replacement: `${1}${2}[REDACTED_TOKEN]`,
			Description: "Authorization header value embedded in a serialized body",
		},
		{
			Name:        "set_cookie_value",
			Regex:       regexp.MustCompile(`(?i)((?:set-)?cookie["':\s]+)([^;"\s]+=)([^;"\s]+)`),
			Replacement: `${1}${2}[REDACTED]`,
			Description: "Cookie value embedded in a serialized body",
		},
	}
}

// IsSensitiveHeader reports whether name (compared case-insensitively) is in
// the closed set of headers that must never carry a value into a prompt or
// a serialized WorkflowDefinition.
func IsSensitiveHeader(name string) bool {
	return sensitiveHeaders[strings.ToLower(name)]
}

// IsCSRFName reports whether a header or cookie name identifies a CSRF
// companion token (spec §4.5: "x-csrf-token", "x-xsrf-token", "csrf-token",
// "x-csrftoken", or any name containing csrf/xsrf).
func IsCSRFName(name string) bool {
	lower := strings.ToLower(name)
	if sensitiveHeaders[lower] {
		return lower == "x-csrf-token" || lower == "x-xsrf-token" || lower == "csrf-token" || lower == "x-csrftoken"
	}
	return strings.Contains(lower, "csrf") || strings.Contains(lower, "xsrf")
}

// IsSessionCookieName reports whether name matches one of the well-known
// session-cookie name patterns used to classify a cookie auth scheme.
func IsSessionCookieName(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range sessionCookieNamePatterns {
		if lower == pattern {
			return true
		}
	}
	return false
}

// IsAuthAdjacentQueryParam reports whether name is in the auth-adjacent query
// parameter set tallied by AuthDetector (spec §4.5).
func IsAuthAdjacentQueryParam(name string) bool {
	return authAdjacentQueryParams[strings.ToLower(name)]
}
