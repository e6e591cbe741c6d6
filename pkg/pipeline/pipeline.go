// Package pipeline wires the six analysis stages together in the
// dependency order of spec §2: NoiseFilter -> Correlator -> Parameterizer
// -> ChainDetector -> AuthDetector -> DefinitionAssembler.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flowscribe/workflow-core/pkg/assembler"
	"github.com/flowscribe/workflow-core/pkg/authdetector"
	"github.com/flowscribe/workflow-core/pkg/chaindetector"
	"github.com/flowscribe/workflow-core/pkg/correlator"
	"github.com/flowscribe/workflow-core/pkg/llmgateway"
	"github.com/flowscribe/workflow-core/pkg/masking"
	"github.com/flowscribe/workflow-core/pkg/metrics"
	"github.com/flowscribe/workflow-core/pkg/model"
	"github.com/flowscribe/workflow-core/pkg/noisefilter"
	"github.com/flowscribe/workflow-core/pkg/parameterizer"
)

// Pipeline runs the full analysis chain over one or more recorded sessions
// of the same underlying workflow, producing one WorkflowDefinition.
type Pipeline struct {
	noiseFilter   *noisefilter.Filter
	correlator    *correlator.Correlator
	parameterizer *parameterizer.Parameterizer
	chainDetector *chaindetector.Detector
	authDetector  *authdetector.Detector
	assembler     *assembler.Assembler
}

// New builds a Pipeline with every stage sharing the same LLM gateway. A
// nil gateway degrades every stage to its heuristic/mechanical fallback
// (spec §9: "every LLM call has a deterministic heuristic fallback"). masker
// redacts sensitive header/cookie values out of the assembled definition
// (spec §3 invariant 7); a nil masker disables that pass, so callers must
// always supply one in production.
func New(gateway *llmgateway.Gateway, masker *masking.Service) *Pipeline {
	return &Pipeline{
		noiseFilter:   noisefilter.New(gateway),
		correlator:    correlator.New(gateway),
		parameterizer: parameterizer.New(gateway),
		chainDetector: chaindetector.New(gateway),
		authDetector:  authdetector.New(gateway),
		assembler:     assembler.New(gateway, masker),
	}
}

// sessionAnalysis is one session's Stage 1/2 output, computed concurrently
// with every other session's (spec §5 "intra-stage parallelism").
type sessionAnalysis struct {
	noise       noisefilter.Result
	correlation []model.Correlation
}

// Analyze runs all six stages over the given sessions (one or more
// recordings believed to be the same workflow) and returns the assembled
// definition.
func (p *Pipeline) Analyze(ctx context.Context, sessions []model.Session) (def *model.WorkflowDefinition, err error) {
	start := time.Now()
	defer func() {
		metrics.AnalysisDurationSeconds.Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.AnalysisRunsTotal.WithLabelValues(outcome).Inc()
	}()

	if len(sessions) == 0 {
		return nil, fmt.Errorf("pipeline: at least one session required")
	}

	analyses, err := p.runStage1And2(ctx, sessions)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	correlationsPerSession := make([][]model.Correlation, len(sessions))
	coreIndicesPerSession := make([][]int, len(sessions))
	for i, a := range analyses {
		correlationsPerSession[i] = a.correlation
		coreIndicesPerSession[i] = a.noise.CoreIndices
	}

	params, err := p.parameterizer.Parameterize(ctx, sessions, correlationsPerSession, coreIndicesPerSession)
	if err != nil {
		return nil, fmt.Errorf("pipeline: parameterizer: %w", err)
	}

	stepsBySession := make([][]sessionStep, len(sessions))
	for i, sess := range sessions {
		stepsBySession[i] = correlatedCoreSteps(sess, correlationsPerSession[i], coreIndicesPerSession[i])
	}

	reference := stepsBySession[0]
	referenceNetEvents := make([]model.NetworkEvent, len(reference))
	referenceDOMEvents := make([]model.DOMEvent, len(reference))
	for i, s := range reference {
		referenceNetEvents[i] = s.netEvent
		referenceDOMEvents[i] = s.domEvent
	}

	var otherSessionEvents [][]model.NetworkEvent
	for _, steps := range stepsBySession[1:] {
		events := make([]model.NetworkEvent, len(steps))
		for i, s := range steps {
			events[i] = s.netEvent
		}
		otherSessionEvents = append(otherSessionEvents, events)
	}

	chainResult, err := p.chainDetector.Detect(ctx, referenceNetEvents, otherSessionEvents)
	if err != nil {
		return nil, fmt.Errorf("pipeline: chain detector: %w", err)
	}

	auth, err := p.authDetector.Detect(ctx, sessions)
	if err != nil {
		return nil, fmt.Errorf("pipeline: auth detector: %w", err)
	}

	lastEndedAt := sessions[0].EndedAt
	for _, sess := range sessions[1:] {
		if sess.EndedAt.After(lastEndedAt) {
			lastEndedAt = sess.EndedAt
		}
	}

	def, err = p.assembler.Assemble(ctx, assembler.Input{
		WorkflowName:   sessions[0].WorkflowName,
		NetworkSteps:   referenceNetEvents,
		DOMEvents:      referenceDOMEvents,
		Parameters:     params,
		ChainResult:    chainResult,
		Auth:           auth,
		RecordingCount: len(sessions),
		LastEndedAt:    lastEndedAt,
		ChainValidated: len(chainResult.Chains) > 0,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: assembler: %w", err)
	}
	metrics.AssembledConfidence.WithLabelValues(string(def.Confidence)).Inc()
	return def, nil
}

// runStage1And2 fans NoiseFilter and Correlator out across every session
// concurrently, since each session's classification and correlation are
// independent of every other session's (spec §5).
func (p *Pipeline) runStage1And2(ctx context.Context, sessions []model.Session) ([]sessionAnalysis, error) {
	results := make([]sessionAnalysis, len(sessions))

	g, gctx := errgroup.WithContext(ctx)
	for i, sess := range sessions {
		g.Go(func() error {
			noise, err := p.noiseFilter.Classify(gctx, sess, sessions)
			if err != nil {
				return fmt.Errorf("session %s: noise filter: %w", sess.ID, err)
			}

			correlations, err := p.correlator.Correlate(gctx, sess.DOMEvents, sess.NetEvents, noise.CoreIndices, noise.SupportingIndices)
			if err != nil {
				return fmt.Errorf("session %s: correlator: %w", sess.ID, err)
			}

			results[i] = sessionAnalysis{noise: noise, correlation: correlations}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// sessionStep pairs a correlated core network event with the DOM event
// that triggered it.
type sessionStep struct {
	netEvent model.NetworkEvent
	domEvent model.DOMEvent
}

// correlatedCoreSteps reduces a session to its correlated core network
// events, DOM-ordered, each paired with its triggering DOM event — the
// same core-filtering rule parameterizer and chaindetector apply to
// determine "the steps of this workflow" (spec §4.3/§4.4).
func correlatedCoreSteps(sess model.Session, correlations []model.Correlation, coreIndices []int) []sessionStep {
	core := map[int]bool{}
	for _, idx := range coreIndices {
		core[idx] = true
	}

	var steps []sessionStep
	for _, corr := range correlations {
		if !core[corr.NetEventIndex] {
			continue
		}
		steps = append(steps, sessionStep{
			netEvent: sess.NetEvents[corr.NetEventIndex],
			domEvent: sess.DOMEvents[corr.DOMEventIndex],
		})
	}
	return steps
}
