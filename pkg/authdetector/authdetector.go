package authdetector

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/flowscribe/workflow-core/pkg/llmgateway"
	"github.com/flowscribe/workflow-core/pkg/masking"
	"github.com/flowscribe/workflow-core/pkg/model"
)

// Detector infers the authentication scheme and enumerates credential
// slots a replay must fill, without ever storing a credential value (spec
// §4.5 Stage 5).
type Detector struct {
	gateway *llmgateway.Gateway
}

func New(gateway *llmgateway.Gateway) *Detector {
	return &Detector{gateway: gateway}
}

var apiKeyHeaderNames = map[string]bool{"x-api-key": true, "api-key": true, "apikey": true}

// tally accumulates per-name presence across sessions to determine
// "consistent" names (spec §4.5 "Analysis").
type tally struct {
	headerSessionsSeen map[string]map[string]bool
	headerBearerValues map[string]bool
	cookieSessionsSeen map[string]map[string]bool
	querySessionsSeen  map[string]map[string]bool
}

func newTally() *tally {
	return &tally{
		headerSessionsSeen: map[string]map[string]bool{},
		headerBearerValues: map[string]bool{},
		cookieSessionsSeen: map[string]map[string]bool{},
		querySessionsSeen:  map[string]map[string]bool{},
	}
}

func (t *tally) markHeader(sessionID, name string, value string) {
	lower := strings.ToLower(name)
	if t.headerSessionsSeen[lower] == nil {
		t.headerSessionsSeen[lower] = map[string]bool{}
	}
	t.headerSessionsSeen[lower][sessionID] = true
	if lower == "authorization" && strings.HasPrefix(value, "Bearer ") {
		t.headerBearerValues[sessionID] = true
	}
}

func (t *tally) markCookie(sessionID, name string) {
	lower := strings.ToLower(name)
	if t.cookieSessionsSeen[lower] == nil {
		t.cookieSessionsSeen[lower] = map[string]bool{}
	}
	t.cookieSessionsSeen[lower][sessionID] = true
}

func (t *tally) markQuery(sessionID, name string) {
	lower := strings.ToLower(name)
	if t.querySessionsSeen[lower] == nil {
		t.querySessionsSeen[lower] = map[string]bool{}
	}
	t.querySessionsSeen[lower][sessionID] = true
}

func consistent(sessionsSeen map[string]bool, totalSessions int) bool {
	return len(sessionsSeen) == totalSessions
}

// Detect classifies the authentication scheme across all sessions'
// network events (spec §4.5 Contract, "Classification (priority order)").
func (d *Detector) Detect(ctx context.Context, sessions []model.Session) (model.AuthPattern, error) {
	t := newTally()
	for _, sess := range sessions {
		for _, evt := range sess.NetEvents {
			for name, value := range evt.RequestHeaders {
				t.markHeader(sess.ID, name, value)
				if strings.ToLower(name) == "cookie" {
					for cookieName := range parseCookiePairs(value) {
						t.markCookie(sess.ID, cookieName)
					}
				}
			}
			u, err := url.Parse(evt.URL)
			if err != nil {
				continue
			}
			for key := range u.Query() {
				if masking.IsAuthAdjacentQueryParam(key) {
					t.markQuery(sess.ID, key)
				}
			}
		}
	}

	n := len(sessions)
	pattern := classify(t, n)

	if d.gateway == nil {
		return pattern, nil
	}

	req := llmgateway.DetectAuthRequest{Heuristic: pattern}
	for _, name := range sortedSeenNames(t.headerSessionsSeen) {
		if consistent(t.headerSessionsSeen[name], n) {
			req.HeaderNames = append(req.HeaderNames, name)
		}
	}
	for _, name := range sortedSeenNames(t.cookieSessionsSeen) {
		if consistent(t.cookieSessionsSeen[name], n) {
			req.CookieNames = append(req.CookieNames, name)
		}
	}
	for _, name := range sortedSeenNames(t.querySessionsSeen) {
		if consistent(t.querySessionsSeen[name], n) {
			req.QueryNames = append(req.QueryNames, name)
		}
	}

	resp, err := d.gateway.DetectAuth(ctx, req)
	if err != nil {
		slog.Warn("auth detector LLM refinement failed, returning heuristic result", "error", err)
		return pattern, nil
	}
	return resp.Pattern, nil
}

func classify(t *tally, n int) model.AuthPattern {
	if n == 0 {
		return model.AuthPattern{Scheme: model.AuthSchemeCustom}
	}

	var scheme model.AuthScheme
	var fields []model.AuthCredentialField

	switch {
	case consistent(t.headerSessionsSeen["authorization"], n) && len(t.headerBearerValues) == n:
		scheme = model.AuthSchemeBearer
		fields = append(fields, model.AuthCredentialField{Name: "Authorization", Location: model.AuthLocationHeader})
	case firstConsistentAPIKeyHeader(t, n) != "":
		scheme = model.AuthSchemeAPIKey
		fields = append(fields, model.AuthCredentialField{Name: firstConsistentAPIKeyHeader(t, n), Location: model.AuthLocationHeader})
	case firstConsistentQueryParam(t, n) != "":
		scheme = model.AuthSchemeAPIKey
		fields = append(fields, model.AuthCredentialField{Name: firstConsistentQueryParam(t, n), Location: model.AuthLocationQuery})
	case firstConsistentSessionCookie(t, n) != "":
		scheme = model.AuthSchemeCookie
		fields = append(fields, model.AuthCredentialField{Name: firstConsistentSessionCookie(t, n), Location: model.AuthLocationCookie})
	case firstConsistentCookie(t, n) != "":
		scheme = model.AuthSchemeCookie
		fields = append(fields, model.AuthCredentialField{Name: firstConsistentCookie(t, n), Location: model.AuthLocationCookie})
	default:
		scheme = model.AuthSchemeCustom
	}

	fields = append(fields, csrfFields(t, n)...)

	return model.AuthPattern{Scheme: scheme, Fields: fields}
}

// sortedSeenNames returns a sessionsSeen-keyed map's names in ascending
// order. Go randomizes map iteration order per-process, so every "first
// consistent X" selection and every CSRF/request-name enumeration below
// iterates names this way instead of raw map range — otherwise two runs of
// the pipeline over identical inputs could pick a different (but equally
// consistent) header/cookie/query name, violating spec §8's "Property —
// idempotence under heuristic fallbacks".
func sortedSeenNames(m map[string]map[string]bool) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func firstConsistentAPIKeyHeader(t *tally, n int) string {
	for _, name := range sortedSeenNames(t.headerSessionsSeen) {
		if apiKeyHeaderNames[name] && consistent(t.headerSessionsSeen[name], n) {
			return name
		}
	}
	return ""
}

func firstConsistentQueryParam(t *tally, n int) string {
	for _, name := range sortedSeenNames(t.querySessionsSeen) {
		if consistent(t.querySessionsSeen[name], n) {
			return name
		}
	}
	return ""
}

func firstConsistentSessionCookie(t *tally, n int) string {
	for _, name := range sortedSeenNames(t.cookieSessionsSeen) {
		if masking.IsSessionCookieName(name) && consistent(t.cookieSessionsSeen[name], n) {
			return name
		}
	}
	return ""
}

func firstConsistentCookie(t *tally, n int) string {
	for _, name := range sortedSeenNames(t.cookieSessionsSeen) {
		if consistent(t.cookieSessionsSeen[name], n) {
			return name
		}
	}
	return ""
}

// csrfFields detects consistent CSRF companions in headers or cookies
// (spec §4.5 "Additionally, detect CSRF companions").
func csrfFields(t *tally, n int) []model.AuthCredentialField {
	var fields []model.AuthCredentialField
	for _, name := range sortedSeenNames(t.headerSessionsSeen) {
		if masking.IsCSRFName(name) && consistent(t.headerSessionsSeen[name], n) {
			fields = append(fields, model.AuthCredentialField{Name: name, Location: model.AuthLocationHeader, IsCSRF: true})
		}
	}
	for _, name := range sortedSeenNames(t.cookieSessionsSeen) {
		if masking.IsCSRFName(name) && consistent(t.cookieSessionsSeen[name], n) {
			fields = append(fields, model.AuthCredentialField{Name: name, Location: model.AuthLocationCookie, IsCSRF: true})
		}
	}
	return fields
}

func parseCookiePairs(header string) map[string]string {
	pairs := map[string]string{}
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok {
			pairs[name] = value
		}
	}
	return pairs
}
