package noisefilter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowscribe/workflow-core/pkg/llmgateway"
	"github.com/flowscribe/workflow-core/pkg/model"
)

// Result is NoiseFilter's Stage 1 output (spec §4.1 Contract).
type Result struct {
	CoreIndices       []int
	SupportingIndices []int
	NoiseCount        int
}

// Filter partitions network events into CORE/SUPPORTING/NOISE.
type Filter struct {
	gateway *llmgateway.Gateway
}

// New creates a NoiseFilter. A nil gateway means every survivor of the
// heuristic pass is treated as CORE, per the LLM-failure degradation rule.
func New(gateway *llmgateway.Gateway) *Filter {
	return &Filter{gateway: gateway}
}

// Classify runs both passes over one session, given all sessions for
// cross-session duplicate detection (spec §4.1 Contract).
func (f *Filter) Classify(ctx context.Context, session model.Session, allSessions []model.Session) (Result, error) {
	survivors := heuristicSurvive(session.NetEvents, allSessions)
	noiseCount := len(session.NetEvents) - len(survivors)

	if f.gateway == nil || len(survivors) == 0 {
		return Result{CoreIndices: survivors, NoiseCount: noiseCount}, nil
	}

	events := make([]model.NetworkEvent, len(survivors))
	for i, idx := range survivors {
		events[i] = session.NetEvents[idx]
	}

	resp, err := f.gateway.Classify(ctx, llmgateway.ClassifyRequest{DOMEvents: session.DOMEvents, Events: events})
	if err != nil {
		slog.Warn("noise filter LLM pass failed, treating all survivors as core", "error", err, "session", session.ID)
		return Result{CoreIndices: survivors, NoiseCount: noiseCount}, nil
	}
	if len(resp.Classifications) != len(survivors) {
		slog.Warn("noise filter LLM pass returned mismatched classification count, falling back", "session", session.ID)
		return Result{CoreIndices: survivors, NoiseCount: noiseCount}, nil
	}

	var core, supporting []int
	for i, idx := range survivors {
		switch resp.Classifications[i] {
		case model.ClassificationCore:
			core = append(core, idx)
		case model.ClassificationNoise:
			noiseCount++
		default:
			// Spec §4.1: "Any survivor the LLM does not classify defaults to
			// SUPPORTING" — the safety net for an empty/unknown verdict too.
			supporting = append(supporting, idx)
		}
	}

	return Result{CoreIndices: core, SupportingIndices: supporting, NoiseCount: noiseCount}, nil
}

// ClassifyAll runs Classify across every session, returning one Result per
// session in the same order. Sessions are classified one after another;
// the pipeline does not use this, it calls Classify per session in its own
// concurrent Stage 1/2 fan-out.
func (f *Filter) ClassifyAll(ctx context.Context, sessions []model.Session) ([]Result, error) {
	results := make([]Result, len(sessions))
	for i, sess := range sessions {
		res, err := f.Classify(ctx, sess, sessions)
		if err != nil {
			return nil, fmt.Errorf("noise filter: session %s: %w", sess.ID, err)
		}
		results[i] = res
	}
	return results, nil
}
