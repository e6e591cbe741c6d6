package assembler

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/flowscribe/workflow-core/pkg/model"
)

const maxExtractDepth = 3

// extractFields recursively flattens a response body's JSON leaves to
// depth 3, with arrays contributing one representative from index 0 (spec
// §4.6 step 8).
func extractFields(body string) []model.FieldExtraction {
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil
	}
	var fields []model.FieldExtraction
	walkExtract(v, "", 0, &fields)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Path < fields[j].Path })
	return fields
}

func walkExtract(v any, prefix string, depth int, out *[]model.FieldExtraction) {
	if depth >= maxExtractDepth {
		return
	}
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
			walkExtract(t[k], path, depth+1, out)
		}
	case []any:
		if len(t) > 0 {
			walkExtract(t[0], prefix+"[0]", depth+1, out)
		}
	case nil:
		// skip null leaves, nothing meaningful to extract
	default:
		*out = append(*out, model.FieldExtraction{Path: prefix, Example: fmt.Sprintf("%v", t)})
	}
}

func truncateFields(fields []model.FieldExtraction, max int) []model.FieldExtraction {
	if len(fields) <= max {
		return fields
	}
	return fields[:max]
}
