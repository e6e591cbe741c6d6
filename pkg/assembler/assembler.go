package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowscribe/workflow-core/pkg/chaindetector"
	"github.com/flowscribe/workflow-core/pkg/llmgateway"
	"github.com/flowscribe/workflow-core/pkg/masking"
	"github.com/flowscribe/workflow-core/pkg/model"
)

// Assembler fuses every prior stage's output into a single
// WorkflowDefinition (spec §4.6 Stage 6 DefinitionAssembler).
type Assembler struct {
	gateway *llmgateway.Gateway
	masker  *masking.Service
}

func New(gateway *llmgateway.Gateway, masker *masking.Service) *Assembler {
	return &Assembler{gateway: gateway, masker: masker}
}

// Input bundles every prior stage's output the assembler needs. Steps,
// domEvents and extractions are all indexed identically, in reference-
// session DOM order, one entry per correlated core network event (spec
// §4.6: "For each correlated core network event (in reference-session DOM
// order)").
type Input struct {
	WorkflowName   string
	NetworkSteps   []model.NetworkEvent
	DOMEvents      []model.DOMEvent
	Parameters     []model.ParameterDef
	ChainResult    chaindetector.Result
	Auth           model.AuthPattern
	RecordingCount int
	LastEndedAt    time.Time
	ChainValidated bool
}

// Assemble builds the terminal WorkflowDefinition (spec §4.6 steps 1-10,
// "Metadata", "Confidence").
func (a *Assembler) Assemble(ctx context.Context, in Input) (*model.WorkflowDefinition, error) {
	if len(in.NetworkSteps) == 0 {
		return nil, fmt.Errorf("assembler: at least one step required")
	}

	baseURL, err := computeBaseURL(in.NetworkSteps[0].URL)
	if err != nil {
		return nil, fmt.Errorf("assembler: %w", err)
	}

	paginationSet := map[int]bool{}
	for _, idx := range in.ChainResult.PaginationSteps {
		paginationSet[idx] = true
	}

	steps := make([]model.WorkflowStep, len(in.NetworkSteps))
	var lastFields []model.FieldExtraction
	for i, netEvt := range in.NetworkSteps {
		idx := buildParamIndex(in.Parameters, i)
		u, err := url.Parse(netEvt.URL)
		if err != nil {
			return nil, fmt.Errorf("assembler: step %d: invalid url: %w", i, err)
		}

		step := model.WorkflowStep{
			Order:         i,
			Method:        netEvt.Method,
			BaseURL:       baseURL,
			PathTemplate:  buildPathTemplate(u.Path, idx),
			QueryTemplate: buildQueryTemplate(u.Query(), idx),
			BodyTemplate:  buildBodyTemplate(netEvt.RequestBody, idx),
			Headers:       cleanHeaders(netEvt.RequestHeaders, idx, a.masker),
			ExtractFields: extractFields(netEvt.ResponseBody),
			IsLoopStep:    paginationSet[i],
		}
		if i < len(in.DOMEvents) {
			step.DOMAction = buildDOMAction(in.DOMEvents[i], idx)
		}
		step.DependsOn, step.InputMappings = dependenciesFor(i, in.ChainResult.Chains)
		step.Description = describeStep(step)

		steps[i] = step
		lastFields = step.ExtractFields
	}

	metadata := a.buildMetadata(ctx, steps, lastFields)

	def := &model.WorkflowDefinition{
		ID:             uuid.NewString(),
		Name:           in.WorkflowName,
		Description:    metadata.Description,
		Steps:          steps,
		Parameters:     in.Parameters,
		Auth:           in.Auth,
		Returns:        metadata.Returns,
		ParallelGroups: in.ChainResult.ParallelGroups,
		ExecutionOrder: in.ChainResult.ExecutionOrder,
		Confidence:     computeConfidence(in.RecordingCount, in.ChainValidated, len(in.Parameters)),
		RecordingCount: in.RecordingCount,
		LastRecorded:   in.LastEndedAt.UTC().Format(time.RFC3339),
	}

	if err := def.Validate(collectSensitiveValues(in.NetworkSteps)...); err != nil {
		return nil, fmt.Errorf("assembler: assembled definition failed validation: %w", err)
	}
	return def, nil
}

// collectSensitiveValues extracts the actual credential values captured in
// the source session's request headers (Authorization/Cookie/X-Api-Key/CSRF
// tokens, cookie pairs split individually), so Validate can confirm none of
// them survived redaction into the assembled definition (spec §3 invariant
// 7).
func collectSensitiveValues(netEvents []model.NetworkEvent) []string {
	var values []string
	for _, evt := range netEvents {
		for name, value := range evt.RequestHeaders {
			if !masking.IsSensitiveHeader(name) {
				continue
			}
			lower := strings.ToLower(name)
			if lower == "cookie" || lower == "set-cookie" {
				for _, pair := range strings.Split(value, ";") {
					if _, v, ok := strings.Cut(strings.TrimSpace(pair), "="); ok && v != "" {
						values = append(values, v)
					}
				}
				continue
			}
			if rest, ok := strings.CutPrefix(value, "Bearer "); ok {
				values = append(values, rest)
			} else {
				values = append(values, value)
			}
		}
	}
	return values
}

func computeBaseURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	return u.Scheme + "://" + u.Host, nil
}

func dependenciesFor(step int, chains []chaindetector.Chain) ([]int, []model.StepInputMapping) {
	var deps []int
	var mappings []model.StepInputMapping
	for _, c := range chains {
		if c.ToStep == step && !c.IsParallel {
			deps = append(deps, c.FromStep)
			mappings = append(mappings, c.InputMappings...)
		}
	}
	return deps, mappings
}

// describeStep composes the description textually from the DOM action and
// the request line (spec §4.6 step 10).
func describeStep(step model.WorkflowStep) string {
	var b strings.Builder
	if step.DOMAction != nil && step.DOMAction.InnerText != "" {
		b.WriteString(fmt.Sprintf("%s %q, then ", step.DOMAction.Kind, step.DOMAction.InnerText))
	} else if step.DOMAction != nil {
		b.WriteString(fmt.Sprintf("%s on %s, then ", step.DOMAction.Kind, step.DOMAction.Selector))
	}
	b.WriteString(fmt.Sprintf("%s %s%s", step.Method, step.BaseURL, step.PathTemplate))
	return b.String()
}

type metadataResult struct {
	Description string
	Returns     model.ReturnsSpec
}

// buildMetadata asks the LLM gateway to write the workflow's description
// and returns shape; on failure it falls back to the last step's extracted
// fields capped at the first 10 (spec §4.6 "Metadata").
func (a *Assembler) buildMetadata(ctx context.Context, steps []model.WorkflowStep, lastFields []model.FieldExtraction) metadataResult {
	fallback := metadataResult{
		Description: fmt.Sprintf("Replays a recorded %d-step browser workflow.", len(steps)),
		Returns:     model.ReturnsSpec{Fields: truncateFields(lastFields, 10)},
	}

	if a.gateway == nil {
		return fallback
	}

	resp, err := a.gateway.WorkflowMetadata(ctx, llmgateway.WorkflowMetadataRequest{Steps: steps, LastStepFields: lastFields})
	if err != nil {
		slog.Warn("assembler metadata LLM call failed, falling back to extracted fields", "error", err)
		return fallback
	}
	return metadataResult{Description: resp.Description, Returns: resp.Returns}
}

// computeConfidence sums recording-count, chain-validation, and parameter
// contributions into a coarse bucket (spec §4.6 "Confidence").
func computeConfidence(recordingCount int, chainValidated bool, parameterCount int) model.Confidence {
	total := 0
	switch {
	case recordingCount >= 3:
		total += 3
	case recordingCount == 2:
		total += 2
	case recordingCount == 1:
		total += 1
	}
	if chainValidated {
		total += 2
	}
	if parameterCount > 0 {
		total += 1
	}

	switch {
	case total >= 5:
		return model.ConfidenceHigh
	case total >= 3:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
