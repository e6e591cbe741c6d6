package assembler

import (
	"fmt"
	"strings"

	"github.com/flowscribe/workflow-core/pkg/model"
)

const maxInnerTextLen = 100

// buildDOMAction builds a step's deterministic-replay DOMAction from its
// correlated DOM event, with fallback selectors in priority order (spec
// §4.6 step 6).
func buildDOMAction(evt model.DOMEvent, idx paramIndex) *model.DOMAction {
	action := &model.DOMAction{
		Kind:      evt.Kind,
		Selector:  evt.Selector,
		AriaLabel: evt.AriaLabel,
		InnerText: truncate(evt.InnerText, maxInnerTextLen),
		Value:     evt.Value,
	}
	action.FallbackSelector = fallbackSelectors(evt)
	action.ParameterRef = parameterRefFor(evt, idx)

	return action
}

// parameterRefFor finds the body-location parameter whose example value
// matches this DOM event's typed/selected value, since DOM input/select
// events don't carry their own location key the way request fields do.
func parameterRefFor(evt model.DOMEvent, idx paramIndex) string {
	if evt.Value == "" {
		return ""
	}
	for key, p := range idx {
		if strings.HasPrefix(key, string(model.LocationBody)+":") && p.Example == evt.Value {
			return p.Name
		}
	}
	return ""
}

// fallbackSelectors derives fallback selectors in priority order:
// [aria-label="..."], then *:contains("text") (the element's tag is not
// recorded on a DOMEvent, so the universal selector stands in for it), then
// the recorder-supplied evt.FallbackSelector entries as given. No
// data-testid, name or id selectors are derived here; a DOMEvent carries no
// such attributes.
func fallbackSelectors(evt model.DOMEvent) []string {
	var selectors []string
	if evt.AriaLabel != "" {
		selectors = append(selectors, fmt.Sprintf(`[aria-label="%s"]`, evt.AriaLabel))
	}
	if evt.InnerText != "" {
		selectors = append(selectors, fmt.Sprintf(`*:contains("%s")`, truncate(evt.InnerText, maxInnerTextLen)))
	}
	selectors = append(selectors, evt.FallbackSelector...)
	return selectors
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
