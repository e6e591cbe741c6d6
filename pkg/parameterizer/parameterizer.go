package parameterizer

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/flowscribe/workflow-core/pkg/llmgateway"
	"github.com/flowscribe/workflow-core/pkg/model"
)

// Parameterizer identifies and names the varying parts of a recorded
// workflow's requests (spec §4.3 Stage 3).
type Parameterizer struct {
	gateway *llmgateway.Gateway
}

func New(gateway *llmgateway.Gateway) *Parameterizer {
	return &Parameterizer{gateway: gateway}
}

// sessionSteps is one session's correlated core network events, in
// reference-session DOM order.
type sessionSteps struct {
	session model.Session
	events  []model.NetworkEvent // correlated core events, DOM-ordered
}

// Parameterize returns empty when fewer than two sessions are provided:
// parameterization is inherently a diff operation (spec §4.3 Contract).
func (p *Parameterizer) Parameterize(ctx context.Context, sessions []model.Session, correlationsPerSession [][]model.Correlation, coreIndicesPerSession [][]int) ([]model.ParameterDef, error) {
	if len(sessions) < 2 {
		return nil, nil
	}

	steps := buildSessionSteps(sessions, correlationsPerSession, coreIndicesPerSession)
	reference := steps[0]

	var varyingParts []llmgateway.VaryingPart
	partsByStep := make(map[int][]varyingPart)
	for stepIdx, refEvent := range reference.events {
		matched := matchStepAcrossSessions(refEvent, stepIdx, steps[1:])
		matched = append([]model.NetworkEvent{refEvent}, matched...)
		if len(matched) < 2 {
			continue
		}
		parts := diffStep(matched)
		if len(parts) == 0 {
			continue
		}
		partsByStep[stepIdx] = parts
		for _, part := range parts {
			varyingParts = append(varyingParts, llmgateway.VaryingPart{
				Step: stepIdx, Location: part.location, Key: part.key, Values: part.values,
			})
		}
	}

	if len(varyingParts) == 0 {
		return nil, nil
	}

	if p.gateway != nil {
		resp, err := p.gateway.Parameterize(ctx, llmgateway.ParameterizeRequest{VaryingParts: varyingParts, DOMContext: reference.session.DOMEvents})
		if err == nil && len(resp.Parameters) > 0 {
			return resp.Parameters, nil
		}
		slog.Warn("parameterizer LLM naming failed, falling back to mechanical naming", "error", err)
	}

	return mechanicalNaming(partsByStep), nil
}

// buildSessionSteps reduces each session to its correlated core network
// events, in DOM order, for step matching.
func buildSessionSteps(sessions []model.Session, correlationsPerSession [][]model.Correlation, coreIndicesPerSession [][]int) []sessionSteps {
	out := make([]sessionSteps, len(sessions))
	for i, sess := range sessions {
		core := map[int]bool{}
		for _, idx := range coreIndicesPerSession[i] {
			core[idx] = true
		}
		var events []model.NetworkEvent
		for _, corr := range correlationsPerSession[i] {
			if core[corr.NetEventIndex] {
				events = append(events, sess.NetEvents[corr.NetEventIndex])
			}
		}
		out[i] = sessionSteps{session: sess, events: events}
	}
	return out
}

// matchStepAcrossSessions finds "the same" step in every other session: a
// network event with identical method and host-path (query stripped),
// preferring the same ordinal position among correlated events (spec §4.3
// "Step matching across sessions").
func matchStepAcrossSessions(ref model.NetworkEvent, ordinal int, others []sessionSteps) []model.NetworkEvent {
	refU, err := url.Parse(ref.URL)
	if err != nil {
		return nil
	}
	refHostPath := refU.Host + refU.Path

	var matched []model.NetworkEvent
	for _, other := range others {
		found := -1
		for i, evt := range other.events {
			u, err := url.Parse(evt.URL)
			if err != nil {
				continue
			}
			if evt.Method == ref.Method && u.Host+u.Path == refHostPath {
				if found == -1 || i == ordinal {
					found = i
				}
				if i == ordinal {
					break
				}
			}
		}
		if found >= 0 {
			matched = append(matched, other.events[found])
		}
	}
	return matched
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// mechanicalNaming is the LLM-failure fallback: one parameter per varying
// part, named by sanitizing the key (spec §4.3 "Naming": "On LLM failure,
// produce one parameter per varying part mechanically"). Steps are visited
// in sorted order so two runs over identical inputs produce parameters in
// the same order (spec §8 "Property — idempotence under heuristic
// fallbacks"); map iteration order alone would not guarantee that.
func mechanicalNaming(partsByStep map[int][]varyingPart) []model.ParameterDef {
	steps := make([]int, 0, len(partsByStep))
	for step := range partsByStep {
		steps = append(steps, step)
	}
	sort.Ints(steps)

	var defs []model.ParameterDef
	for _, step := range steps {
		for _, part := range partsByStep[step] {
			defs = append(defs, model.ParameterDef{
				Name:    sanitizeName(part.key),
				Type:    inferType(part.values),
				Example: firstOrEmpty(part.values),
				UsedIn:  []model.ParamUsage{{Step: step, Location: part.location, Key: part.key}},
			})
		}
	}
	return defs
}

func sanitizeName(key string) string {
	cleaned := nonAlnum.ReplaceAllString(key, "_")
	parts := strings.Split(cleaned, "_")
	var name strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			name.WriteString(strings.ToLower(part))
		} else {
			name.WriteString(strings.ToUpper(part[:1]) + strings.ToLower(part[1:]))
		}
	}
	if name.Len() == 0 {
		return "param"
	}
	return name.String()
}

func inferType(values []string) model.ParamType {
	allNumbers := true
	allBool := true
	for _, v := range values {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			allNumbers = false
		}
		if v != "true" && v != "false" {
			allBool = false
		}
	}
	switch {
	case allNumbers:
		return model.ParamTypeNumber
	case allBool:
		return model.ParamTypeBoolean
	default:
		return model.ParamTypeString
	}
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
