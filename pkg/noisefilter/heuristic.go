package noisefilter

import (
	"net/url"
	"strings"

	"github.com/flowscribe/workflow-core/pkg/model"
)

// trackingDomains is the known blocklist of analytics/tracking hosts (spec
// §4.1 heuristic pass, bullet 1).
var trackingDomains = []string{
	"google-analytics.com",
	"googletagmanager.com",
	"doubleclick.net",
	"segment.io",
	"segment.com",
	"mixpanel.com",
	"hotjar.com",
	"fullstory.com",
	"sentry.io",
	"intercom.io",
	"facebook.net",
}

// staticContentTypePrefixes and staticExtensions identify static-asset
// responses (spec §4.1 heuristic pass, bullet 2).
var staticContentTypePrefixes = []string{"image/", "font/", "text/css", "application/javascript", "text/javascript"}
var staticExtensions = []string{".css", ".js", ".woff", ".woff2", ".ttf", ".eot", ".ico", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

func isTrackingHost(host string) bool {
	host = strings.ToLower(host)
	for _, blocked := range trackingDomains {
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}

func isStaticAsset(contentType, path string) bool {
	ct := strings.ToLower(contentType)
	for _, prefix := range staticContentTypePrefixes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	lowerPath := strings.ToLower(path)
	for _, ext := range staticExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return true
		}
	}
	return false
}

// heuristicSurvive applies the heuristic pass over one session's network
// events, returning the indices that survive into the LLM pass.
func heuristicSurvive(events []model.NetworkEvent, allSessions []model.Session) []int {
	globalDuplicate := globalIdenticalCalls(allSessions)

	survivors := make([]int, 0, len(events))
	for i, evt := range events {
		parsed, err := url.Parse(evt.URL)
		if err == nil && isTrackingHost(parsed.Host) {
			continue
		}
		if parsed != nil && isStaticAsset(evt.ResponseHeaders["Content-Type"], parsed.Path) {
			continue
		}
		if strings.EqualFold(evt.Method, "OPTIONS") {
			continue
		}
		if parsed != nil {
			key := evt.Method + " " + evt.URL
			if globalDuplicate[key] {
				continue
			}
		}
		survivors = append(survivors, i)
	}
	return survivors
}

// globalIdenticalCalls finds (method, url) pairs that appear in every
// session, when at least two sessions are available (spec §4.1 bullet 4).
func globalIdenticalCalls(allSessions []model.Session) map[string]bool {
	result := make(map[string]bool)
	if len(allSessions) < 2 {
		return result
	}

	counts := make(map[string]int)
	for _, sess := range allSessions {
		seenInSession := make(map[string]bool)
		for _, evt := range sess.NetEvents {
			key := evt.Method + " " + evt.URL
			if !seenInSession[key] {
				counts[key]++
				seenInSession[key] = true
			}
		}
	}
	for key, count := range counts {
		if count == len(allSessions) {
			result[key] = true
		}
	}
	return result
}
