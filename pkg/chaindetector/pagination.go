package chaindetector

import (
	"net/url"
	"strconv"

	"github.com/flowscribe/workflow-core/pkg/model"
)

// paginationParams is the known pagination parameter set (spec §4.4
// "Pagination detection").
var paginationParams = map[string]bool{
	"page": true, "offset": true, "skip": true, "start": true,
	"cursor": true, "after": true, "before": true, "limit": true,
}

// detectPagination groups core events by (method, host+path) and flags
// every step in a group whose pagination-candidate parameter increases
// strictly across the group (spec §4.4 "Pagination detection (heuristic)").
func detectPagination(steps []model.NetworkEvent) map[int]bool {
	type groupKey struct{ method, hostPath string }
	groups := map[groupKey][]int{}

	for i, evt := range steps {
		u, err := url.Parse(evt.URL)
		if err != nil {
			continue
		}
		key := groupKey{method: evt.Method, hostPath: u.Host + u.Path}
		groups[key] = append(groups[key], i)
	}

	result := map[int]bool{}
	for _, indices := range groups {
		if len(indices) < 2 {
			continue
		}
		if paramName, ok := findIncreasingParam(steps, indices); ok && paginationParams[paramName] {
			for _, idx := range indices {
				result[idx] = true
			}
		}
	}
	return result
}

// findIncreasingParam finds a query parameter whose numeric values form a
// strictly increasing sequence across the group, in the group's step order.
func findIncreasingParam(steps []model.NetworkEvent, indices []int) (string, bool) {
	candidateValues := map[string][]int{}
	for _, idx := range indices {
		u, err := url.Parse(steps[idx].URL)
		if err != nil {
			return "", false
		}
		for key, values := range u.Query() {
			if len(values) == 0 {
				continue
			}
			n, err := strconv.Atoi(values[0])
			if err != nil {
				continue
			}
			candidateValues[key] = append(candidateValues[key], n)
		}
	}

	for key, values := range candidateValues {
		if len(values) != len(indices) {
			continue
		}
		if isStrictlyIncreasing(values) {
			return key, true
		}
	}
	return "", false
}

func isStrictlyIncreasing(values []int) bool {
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return false
		}
	}
	return true
}
