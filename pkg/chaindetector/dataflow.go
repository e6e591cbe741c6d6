package chaindetector

import (
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/flowscribe/workflow-core/pkg/model"
)

// dataFlowCandidate is one occurrence of a source step's response value
// reappearing in a target step's request (spec §4.4 "Data-flow candidate
// discovery").
type dataFlowCandidate struct {
	fromStep, toStep int
	mapping          model.StepInputMapping
}

// flattenResponseValues flattens a step's JSON response body to
// {jsonPath -> value}, skipping trivial short values (spec §4.4 step 2).
func flattenResponseValues(body string) map[string]string {
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil
	}
	out := make(map[string]string)
	flattenJSONPaths(v, "$", out)
	for k, val := range out {
		if len(val) < 2 {
			delete(out, k)
		}
	}
	return out
}

func flattenJSONPaths(v any, prefix string, out map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenJSONPaths(t[k], prefix+"."+k, out)
		}
	case []any:
		for i, elem := range t {
			flattenJSONPaths(elem, prefix+"["+strconv.Itoa(i)+"]", out)
		}
	case string:
		out[prefix] = t
	case float64:
		out[prefix] = trimFloat(t)
	case bool:
		out[prefix] = boolStr(t)
	}
}

// discoverCandidates enumerates every occurrence of a source value inside a
// target request (spec §4.4 step 3).
func discoverCandidates(fromStep, toStep int, from, to model.NetworkEvent) []dataFlowCandidate {
	sourceValues := flattenResponseValues(from.ResponseBody)
	if len(sourceValues) == 0 {
		return nil
	}

	u, err := url.Parse(to.URL)
	if err != nil {
		return nil
	}

	var candidates []dataFlowCandidate
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segs {
		for jsonPath, val := range sourceValues {
			if seg != "" && seg == val {
				candidates = append(candidates, dataFlowCandidate{fromStep, toStep, model.StepInputMapping{
					SourceStep: fromStep, SourceJSONPath: jsonPath,
					TargetLocation: model.LocationPath, TargetKey: "segment_" + strconv.Itoa(i),
				}})
			}
		}
	}

	for key, values := range u.Query() {
		for _, qv := range values {
			for jsonPath, val := range sourceValues {
				if qv == val {
					candidates = append(candidates, dataFlowCandidate{fromStep, toStep, model.StepInputMapping{
						SourceStep: fromStep, SourceJSONPath: jsonPath,
						TargetLocation: model.LocationQuery, TargetKey: key,
					}})
				}
			}
		}
	}

	if to.RequestBody != "" {
		if bodyFlat, ok := flattenBody(to.RequestBody); ok {
			for path, bv := range bodyFlat {
				for jsonPath, val := range sourceValues {
					if bv == val {
						candidates = append(candidates, dataFlowCandidate{fromStep, toStep, model.StepInputMapping{
							SourceStep: fromStep, SourceJSONPath: jsonPath,
							TargetLocation: model.LocationBody, TargetKey: path,
						}})
					}
				}
			}
		}
	}

	for name, hv := range to.RequestHeaders {
		for jsonPath, val := range sourceValues {
			if hv == val {
				candidates = append(candidates, dataFlowCandidate{fromStep, toStep, model.StepInputMapping{
					SourceStep: fromStep, SourceJSONPath: jsonPath,
					TargetLocation: model.LocationHeader, TargetKey: name,
				}})
			}
		}
	}

	return candidates
}

func flattenBody(body string) (map[string]string, bool) {
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, false
	}
	out := make(map[string]string)
	flattenJSONPaths(v, "$", out)
	stripped := make(map[string]string, len(out))
	for k, val := range out {
		stripped[strings.TrimPrefix(strings.TrimPrefix(k, "$."), "$")] = val
	}
	return stripped, true
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return jsonNumber(f)
}

func jsonNumber(f float64) string {
	raw, _ := json.Marshal(f)
	return string(raw)
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
