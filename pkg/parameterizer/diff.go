package parameterizer

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/flowscribe/workflow-core/pkg/model"
)

// ephemeralHeaders is the closed set filtered out before header diffing
// (spec §4.3 per-step diffing, location 4).
var ephemeralHeaders = map[string]bool{
	"content-length": true,
	"date":           true,
	"user-agent":     true,
	"cache-control":  true,
	"if-none-match":  true,
	"etag":           true,
	"x-request-id":   true,
	"x-trace-id":     true,
	"x-correlation-id": true,
	"traceparent":    true,
}

func isEphemeralHeader(name string) bool {
	lower := strings.ToLower(name)
	if ephemeralHeaders[lower] {
		return true
	}
	return strings.HasPrefix(lower, "accept") || strings.HasPrefix(lower, "sec-ch-") || strings.HasPrefix(lower, "sec-fetch-")
}

// varyingPart is one location in a request whose value differs across the
// matched events for a step.
type varyingPart struct {
	location model.ParamLocation
	key      string
	values   []string
}

// diffStep computes the varying parts across a set of matched network
// events that represent "the same step" in different sessions.
func diffStep(events []model.NetworkEvent) []varyingPart {
	var parts []varyingPart
	parts = append(parts, diffPathSegments(events)...)
	parts = append(parts, diffQueryParams(events)...)
	parts = append(parts, diffBody(events)...)
	parts = append(parts, diffHeaders(events)...)
	return parts
}

func diffPathSegments(events []model.NetworkEvent) []varyingPart {
	var segmentSets [][]string
	maxLen := 0
	for _, evt := range events {
		u, err := url.Parse(evt.URL)
		if err != nil {
			return nil
		}
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		segmentSets = append(segmentSets, segs)
		if len(segs) > maxLen {
			maxLen = len(segs)
		}
	}

	var parts []varyingPart
	for i := 0; i < maxLen; i++ {
		values := uniqueNonEmpty(func(idx int) (string, bool) {
			if i < len(segmentSets[idx]) {
				return segmentSets[idx][i], segmentSets[idx][i] != ""
			}
			return "", false
		}, len(segmentSets))
		if len(values) > 1 {
			parts = append(parts, varyingPart{location: model.LocationPath, key: keyForSegment(i), values: values})
		}
	}
	return parts
}

func keyForSegment(i int) string {
	return "segment_" + strconv.Itoa(i)
}

func diffQueryParams(events []model.NetworkEvent) []varyingPart {
	allKeys := map[string]bool{}
	var queries []url.Values
	for _, evt := range events {
		u, err := url.Parse(evt.URL)
		if err != nil {
			return nil
		}
		queries = append(queries, u.Query())
		for k := range u.Query() {
			allKeys[k] = true
		}
	}

	var parts []varyingPart
	for _, key := range sortedKeys(allKeys) {
		values := uniqueNonEmpty(func(idx int) (string, bool) {
			v := queries[idx].Get(key)
			return v, v != ""
		}, len(queries))
		if len(values) > 1 {
			parts = append(parts, varyingPart{location: model.LocationQuery, key: key, values: values})
		}
	}
	return parts
}

func diffBody(events []model.NetworkEvent) []varyingPart {
	flattened := make([]map[string]string, len(events))
	allJSON := true
	for i, evt := range events {
		if evt.RequestBody == "" {
			flattened[i] = map[string]string{}
			continue
		}
		flat, ok := flattenJSON(evt.RequestBody)
		if !ok {
			allJSON = false
			break
		}
		flattened[i] = flat
	}

	if !allJSON {
		// Non-JSON bodies compared as opaque strings (spec §4.3 location 3).
		values := uniqueNonEmpty(func(idx int) (string, bool) {
			return events[idx].RequestBody, events[idx].RequestBody != ""
		}, len(events))
		if len(values) > 1 {
			return []varyingPart{{location: model.LocationBody, key: "$", values: values}}
		}
		return nil
	}

	allKeys := map[string]bool{}
	for _, flat := range flattened {
		for k := range flat {
			allKeys[k] = true
		}
	}

	var parts []varyingPart
	for _, key := range sortedKeys(allKeys) {
		values := uniqueNonEmpty(func(idx int) (string, bool) {
			v, ok := flattened[idx][key]
			return v, ok && v != ""
		}, len(flattened))
		if len(values) > 1 {
			parts = append(parts, varyingPart{location: model.LocationBody, key: key, values: values})
		}
	}
	return parts
}

func diffHeaders(events []model.NetworkEvent) []varyingPart {
	allKeys := map[string]bool{}
	for _, evt := range events {
		for k := range evt.RequestHeaders {
			if !isEphemeralHeader(k) {
				allKeys[strings.ToLower(k)] = true
			}
		}
	}

	var parts []varyingPart
	for _, key := range sortedKeys(allKeys) {
		values := uniqueNonEmpty(func(idx int) (string, bool) {
			for k, v := range events[idx].RequestHeaders {
				if strings.ToLower(k) == key {
					return v, v != ""
				}
			}
			return "", false
		}, len(events))
		if len(values) > 1 {
			parts = append(parts, varyingPart{location: model.LocationHeader, key: key, values: values})
		}
	}
	return parts
}

// sortedKeys returns a map's keys in ascending order, so diff output is
// independent of Go's randomized map iteration order (spec §8 "Property —
// idempotence under heuristic fallbacks").
func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// uniqueNonEmpty collects the distinct non-empty values returned by get
// across indices [0, n), preserving a stable (first-seen) order.
func uniqueNonEmpty(get func(i int) (string, bool), n int) []string {
	seen := map[string]bool{}
	var values []string
	for i := 0; i < n; i++ {
		v, ok := get(i)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}
