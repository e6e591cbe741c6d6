package parameterizer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// flattenJSON flattens a parsed JSON value into dotted-path leaf strings,
// mirroring the flattening spec §4.3 and §4.6 both rely on.
func flattenJSON(raw string) (map[string]string, bool) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false
	}
	out := make(map[string]string)
	flattenInto(v, "", out)
	return out, true
}

func flattenInto(v any, prefix string, out map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			flattenInto(t[k], path, out)
		}
	case []any:
		for i, elem := range t {
			path := prefix + "[" + strconv.Itoa(i) + "]"
			flattenInto(elem, path, out)
		}
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprintf("%v", t)
	}
}
