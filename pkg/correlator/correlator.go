package correlator

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/flowscribe/workflow-core/pkg/llmgateway"
	"github.com/flowscribe/workflow-core/pkg/model"
)

// Correlator maps each DOM event to the network events it caused (spec
// §4.2 Stage 2).
type Correlator struct {
	gateway *llmgateway.Gateway
}

func New(gateway *llmgateway.Gateway) *Correlator {
	return &Correlator{gateway: gateway}
}

const (
	defaultWindow = 2000 * time.Millisecond
	cascadeWindow = 5000 * time.Millisecond
	capPadding    = 500 * time.Millisecond
)

// minTimeGapMs returns the minimum gap, in milliseconds, between
// consecutive network events (sorted, as netIdxs already is) within one
// DOM event's correlated group (spec §3 Correlation: "minimum time gap";
// §4.2 Output: "timeGap equals the minimum gap among the correlation's
// network events"). A single-event group has no internal gap and reports 0.
func minTimeGapMs(netIdxs []int, netEvents []model.NetworkEvent) int64 {
	if len(netIdxs) < 2 {
		return 0
	}
	minGap := int64(math.MaxInt64)
	for i := 1; i < len(netIdxs); i++ {
		gap := netEvents[netIdxs[i]].Timestamp.Sub(netEvents[netIdxs[i-1]].Timestamp).Milliseconds()
		if gap < minGap {
			minGap = gap
		}
	}
	return minGap
}

func windowFor(kind model.DOMEventKind) time.Duration {
	switch kind {
	case model.DOMEventNavigate, model.DOMEventSubmit:
		return cascadeWindow
	default:
		return defaultWindow
	}
}

type window struct {
	start, end time.Time
}

// Correlate runs windowing, assignment, and (optionally) LLM validation over
// one session's events (spec §4.2 Contract).
func (c *Correlator) Correlate(ctx context.Context, domEvents []model.DOMEvent, netEvents []model.NetworkEvent, coreIndices, supportingIndices []int) ([]model.Correlation, error) {
	eligible := make(map[int]bool, len(coreIndices)+len(supportingIndices))
	for _, i := range coreIndices {
		eligible[i] = true
	}
	for _, i := range supportingIndices {
		eligible[i] = true
	}

	windows := make([]window, len(domEvents))
	for i, evt := range domEvents {
		start := evt.Timestamp
		end := start.Add(windowFor(evt.Kind))
		if i+1 < len(domEvents) {
			capAt := domEvents[i+1].Timestamp.Add(capPadding)
			if capAt.Before(end) {
				end = capAt
			}
		}
		windows[i] = window{start: start, end: end}
	}

	assignments := make(map[int][]int) // domEventIndex -> netEventIndices
	claimed := make(map[int]bool)
	for netIdx, evt := range netEvents {
		if !eligible[netIdx] {
			continue
		}
		candidates := make([]int, 0)
		for domIdx, w := range windows {
			if !evt.Timestamp.Before(w.start) && evt.Timestamp.Before(w.end) {
				candidates = append(candidates, domIdx)
			}
		}
		if len(candidates) == 0 || claimed[netIdx] {
			continue
		}
		best := candidates[0]
		if len(candidates) > 1 {
			bestGap := math.MaxFloat64
			for _, domIdx := range candidates {
				gap := math.Abs(float64(evt.Timestamp.Sub(windows[domIdx].start)))
				if gap < bestGap {
					bestGap = gap
					best = domIdx
				}
			}
		}
		assignments[best] = append(assignments[best], netIdx)
		claimed[netIdx] = true
	}

	correlations := make([]model.Correlation, 0, len(assignments))
	for domIdx, netIdxs := range assignments {
		sort.Ints(netIdxs)
		timeGapMs := minTimeGapMs(netIdxs, netEvents)
		for _, netIdx := range netIdxs {
			correlations = append(correlations, model.Correlation{DOMEventIndex: domIdx, NetEventIndex: netIdx, TimeGapMs: timeGapMs})
		}
	}
	sort.Slice(correlations, func(i, j int) bool { return correlations[i].DOMEventIndex < correlations[j].DOMEventIndex })

	if c.gateway == nil || len(correlations) == 0 {
		return correlations, nil
	}

	candidates := make([]llmgateway.CorrelationCandidate, len(correlations))
	for i, corr := range correlations {
		candidates[i] = llmgateway.CorrelationCandidate{
			DOMEventIndex: corr.DOMEventIndex,
			NetEventIndex: corr.NetEventIndex,
			TimeDeltaMs:   float64(netEvents[corr.NetEventIndex].Timestamp.Sub(domEvents[corr.DOMEventIndex].Timestamp).Milliseconds()),
		}
	}

	resp, err := c.gateway.ValidateCorrelations(ctx, llmgateway.ValidateCorrelationsRequest{Candidates: candidates})
	if err != nil {
		slog.Warn("correlator LLM validation failed, keeping temporal correlations", "error", err)
		return correlations, nil
	}
	if len(resp.Confirmed) != len(correlations) {
		slog.Warn("correlator LLM validation returned mismatched count, keeping temporal correlations")
		return correlations, nil
	}

	kept := make([]model.Correlation, 0, len(correlations))
	for i, corr := range correlations {
		if resp.Confirmed[i] {
			kept = append(kept, corr)
		}
	}
	return kept, nil
}
