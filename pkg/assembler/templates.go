package assembler

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/flowscribe/workflow-core/pkg/masking"
	"github.com/flowscribe/workflow-core/pkg/model"
)

// transportHeaderDenylist is removed from every step's cleaned headers
// (spec §4.6 step 5: "remove a fixed denylist of transport/browser
// headers").
var transportHeaderDenylist = map[string]bool{
	"host": true, "connection": true, "content-length": true,
	"accept-encoding": true, "accept-language": true, "user-agent": true,
	"sec-ch-ua": true, "sec-ch-ua-mobile": true, "sec-ch-ua-platform": true,
	"sec-fetch-dest": true, "sec-fetch-mode": true, "sec-fetch-site": true,
	"sec-fetch-user": true, "upgrade-insecure-requests": true,
	"cache-control": true, "pragma": true, "origin": true, "referer": true,
}

// paramIndex indexes a WorkflowStep's parameters by (location, key) for
// template substitution.
type paramIndex map[string]model.ParameterDef // key: "location:key"

func buildParamIndex(params []model.ParameterDef, step int) paramIndex {
	idx := paramIndex{}
	for _, p := range params {
		for _, usage := range p.UsedIn {
			if usage.Step == step {
				idx[string(usage.Location)+":"+usage.Key] = p
			}
		}
	}
	return idx
}

func (idx paramIndex) lookup(location model.ParamLocation, key string) (model.ParameterDef, bool) {
	p, ok := idx[string(location)+":"+key]
	return p, ok
}

// buildPathTemplate replaces every path-location parameter's example value
// in the pathname with {paramName} (spec §4.6 step 2).
func buildPathTemplate(pathname string, idx paramIndex) string {
	segs := strings.Split(strings.Trim(pathname, "/"), "/")
	for i, seg := range segs {
		key := "segment_" + strconv.Itoa(i)
		if p, ok := idx.lookup(model.LocationPath, key); ok && seg == p.Example {
			segs[i] = "{" + p.Name + "}"
		}
	}
	return "/" + strings.Join(segs, "/")
}

// buildQueryTemplate maps each query key that carries a parameter to
// {paramName}; present only when the URL has any query parameters (spec
// §4.6 step 3).
func buildQueryTemplate(query url.Values, idx paramIndex) map[string]string {
	if len(query) == 0 {
		return nil
	}
	tmpl := make(map[string]string, len(query))
	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		if p, ok := idx.lookup(model.LocationQuery, key); ok {
			tmpl[key] = "{" + p.Name + "}"
		} else {
			tmpl[key] = values[0]
		}
	}
	return tmpl
}

// buildBodyTemplate string-replaces every body-location parameter's example
// value with {paramName} (spec §4.6 step 4).
func buildBodyTemplate(body string, idx paramIndex) string {
	if body == "" {
		return ""
	}
	result := body
	for key, p := range idx {
		if !strings.HasPrefix(key, string(model.LocationBody)+":") {
			continue
		}
		if p.Example != "" {
			result = strings.ReplaceAll(result, p.Example, "{"+p.Name+"}")
		}
	}
	return result
}

// cleanHeaders removes the transport/browser denylist, substitutes
// parameter placeholders where a parameter's usedIn references this header,
// and redacts any remaining sensitive header (Authorization, Cookie,
// Set-Cookie, X-Api-Key, CSRF tokens, ...) through masker so no credential
// value ever reaches the persisted WorkflowDefinition (spec §4.6 step 5,
// §3 invariant 7).
func cleanHeaders(headers map[string]string, idx paramIndex, masker *masking.Service) map[string]string {
	templated := map[string]string{}
	literal := map[string]string{}
	for name, value := range headers {
		lower := strings.ToLower(name)
		if transportHeaderDenylist[lower] {
			continue
		}
		if p, ok := idx.lookup(model.LocationHeader, lower); ok {
			templated[name] = "{" + p.Name + "}"
		} else {
			literal[name] = value
		}
	}

	if masker != nil {
		literal = masker.RedactHeaders(literal)
	}

	cleaned := make(map[string]string, len(templated)+len(literal))
	for name, value := range literal {
		cleaned[name] = value
	}
	for name, value := range templated {
		cleaned[name] = value
	}
	return cleaned
}
