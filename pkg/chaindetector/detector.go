package chaindetector

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/flowscribe/workflow-core/pkg/llmgateway"
	"github.com/flowscribe/workflow-core/pkg/model"
)

// Result is ChainDetector's Stage 4 output (spec §4.4 Contract).
type Result struct {
	Chains         []Chain
	ParallelGroups [][]int
	PaginationSteps []int
	ExecutionOrder []int
}

// Detector identifies inter-step data dependencies, parallelism, and
// pagination loops (spec §4.4 Stage 4).
type Detector struct {
	gateway *llmgateway.Gateway
}

func New(gateway *llmgateway.Gateway) *Detector {
	return &Detector{gateway: gateway}
}

// Detect runs candidate discovery, pagination detection, LLM validation,
// cross-session stability softening, and execution-order computation over
// the reference session's ordered core steps.
func (d *Detector) Detect(ctx context.Context, referenceSteps []model.NetworkEvent, otherSessionSteps [][]model.NetworkEvent) (Result, error) {
	n := len(referenceSteps)

	var candidates []dataFlowCandidate
	for from := 0; from < n; from++ {
		for to := from + 1; to < n; to++ {
			candidates = append(candidates, discoverCandidates(from, to, referenceSteps[from], referenceSteps[to])...)
		}
	}

	grouped := groupCandidatesByPair(candidates)
	paginated := detectPagination(referenceSteps)

	var chains []Chain
	if d.gateway != nil && len(grouped) > 0 {
		chains = d.validateWithLLM(ctx, grouped, referenceSteps, paginated)
	} else {
		chains = acceptAllHeuristic(grouped, paginated)
	}

	chains = softenForCrossSessionStability(chains, referenceSteps, otherSessionSteps)

	paginationSteps := make([]int, 0, len(paginated))
	for idx := range paginated {
		paginationSteps = append(paginationSteps, idx)
	}

	return Result{
		Chains:          chains,
		ParallelGroups:  parallelGroups(n, chains),
		PaginationSteps: paginationSteps,
		ExecutionOrder:  buildExecutionOrder(n, chains),
	}, nil
}

func groupCandidatesByPair(candidates []dataFlowCandidate) map[[2]int][]dataFlowCandidate {
	grouped := make(map[[2]int][]dataFlowCandidate)
	for _, c := range candidates {
		key := [2]int{c.fromStep, c.toStep}
		grouped[key] = append(grouped[key], c)
	}
	return grouped
}

func acceptAllHeuristic(grouped map[[2]int][]dataFlowCandidate, paginated map[int]bool) []Chain {
	var chains []Chain
	for pair, candidates := range grouped {
		mappings := make([]model.StepInputMapping, len(candidates))
		for i, c := range candidates {
			mappings[i] = c.mapping
		}
		chains = append(chains, Chain{
			FromStep: pair[0], ToStep: pair[1], InputMappings: mappings,
			IsPagination: paginated[pair[0]] && paginated[pair[1]],
		})
	}
	return chains
}

func (d *Detector) validateWithLLM(ctx context.Context, grouped map[[2]int][]dataFlowCandidate, steps []model.NetworkEvent, paginated map[int]bool) []Chain {
	pairs := make([][2]int, 0, len(grouped))
	for pair := range grouped {
		pairs = append(pairs, pair)
	}

	req := llmgateway.ValidateChainsRequest{}
	for _, pair := range pairs {
		candidates := grouped[pair]
		mappings := make([]model.StepInputMapping, len(candidates))
		for i, c := range candidates {
			mappings[i] = c.mapping
		}
		req.Candidates = append(req.Candidates, llmgateway.ChainCandidate{
			FromStep: pair[0], ToStep: pair[1], DataFlows: mappings,
		})
	}

	resp, err := d.gateway.ValidateChains(ctx, req)
	if err != nil || len(resp.Verdicts) != len(pairs) {
		slog.Warn("chain detector LLM validation failed, accepting all heuristic candidates", "error", err)
		return acceptAllHeuristic(grouped, paginated)
	}

	var chains []Chain
	for i, verdict := range resp.Verdicts {
		if !verdict.Confirmed {
			continue
		}
		pair := pairs[i]
		mappings := verdict.InputMappings
		if len(mappings) == 0 {
			candidates := grouped[pair]
			mappings = make([]model.StepInputMapping, len(candidates))
			for j, c := range candidates {
				mappings[j] = c.mapping
			}
		}
		chains = append(chains, Chain{
			FromStep: pair[0], ToStep: pair[1], InputMappings: mappings,
			IsParallel: verdict.IsParallel, IsPagination: verdict.IsPagination || (paginated[pair[0]] && paginated[pair[1]]),
		})
	}
	return chains
}

// softenForCrossSessionStability attempts to reproduce each confirmed
// chain's data flow in every other session containing the corresponding
// step pair (same method + host-path); chains that don't hold are retained
// but their input mappings are cleared as a confidence signal (spec §4.4
// "Cross-session stability").
func softenForCrossSessionStability(chains []Chain, referenceSteps []model.NetworkEvent, otherSessionSteps [][]model.NetworkEvent) []Chain {
	for i, chain := range chains {
		if reproducesInAllSessions(chain, referenceSteps, otherSessionSteps) {
			continue
		}
		chains[i].InputMappings = nil
	}
	return chains
}

func reproducesInAllSessions(chain Chain, referenceSteps []model.NetworkEvent, otherSessionSteps [][]model.NetworkEvent) bool {
	fromURL, err1 := url.Parse(referenceSteps[chain.FromStep].URL)
	toURL, err2 := url.Parse(referenceSteps[chain.ToStep].URL)
	if err1 != nil || err2 != nil {
		return true
	}

	for _, session := range otherSessionSteps {
		fromIdx, toIdx := -1, -1
		for i, evt := range session {
			u, err := url.Parse(evt.URL)
			if err != nil {
				continue
			}
			if evt.Method == referenceSteps[chain.FromStep].Method && u.Host+u.Path == fromURL.Host+fromURL.Path {
				fromIdx = i
			}
			if evt.Method == referenceSteps[chain.ToStep].Method && u.Host+u.Path == toURL.Host+toURL.Path {
				toIdx = i
			}
		}
		if fromIdx == -1 || toIdx == -1 {
			continue // session doesn't contain this step pair, skip
		}
		candidates := discoverCandidates(fromIdx, toIdx, session[fromIdx], session[toIdx])
		if len(candidates) == 0 {
			return false
		}
	}
	return true
}
