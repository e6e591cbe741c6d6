package llmgateway

import "github.com/flowscribe/workflow-core/pkg/model"

// ClassifyRequest asks the gateway to classify network events left
// ambiguous by the heuristic noise filter (spec §4.1 NoiseFilter Stage 1).
type ClassifyRequest struct {
	DOMEvents []model.DOMEvent     `json:"domEvents"`
	Events    []model.NetworkEvent `json:"events"`
}

// ClassifyResponse assigns one classification per submitted event, indexed
// identically to ClassifyRequest.Events.
type ClassifyResponse struct {
	Classifications []model.NetworkClassification `json:"classifications"`
}

// CorrelationCandidate is one heuristic DOM-to-network pairing submitted for
// LLM confirmation (spec §4.2 Correlator).
type CorrelationCandidate struct {
	DOMEventIndex int     `json:"domEventIndex"`
	NetEventIndex int     `json:"netEventIndex"`
	TimeDeltaMs   float64 `json:"timeDeltaMs"`
}

// ValidateCorrelationsRequest submits windowed candidates for confirmation.
type ValidateCorrelationsRequest struct {
	Candidates []CorrelationCandidate `json:"candidates"`
}

// ValidateCorrelationsResponse confirms or rejects each submitted candidate,
// in the same order.
type ValidateCorrelationsResponse struct {
	Confirmed []bool `json:"confirmed"`
}

// VaryingPart is one piece of cross-session request data found to differ
// (spec §4.3 Parameterizer naming).
type VaryingPart struct {
	Step     int                 `json:"step"`
	Location model.ParamLocation `json:"location"`
	Key      string              `json:"key"`
	Values   []string            `json:"values"`
}

// ParameterizeRequest asks the gateway to name the varying parts of a
// workflow's steps.
type ParameterizeRequest struct {
	VaryingParts []VaryingPart `json:"varyingParts"`
	DOMContext   []model.DOMEvent `json:"domContext"`
}

// ParameterizeResponse returns one named parameter per distinct semantic
// input, merging usedIn locations that represent the same value.
type ParameterizeResponse struct {
	Parameters []model.ParameterDef `json:"parameters"`
}

// ChainCandidate is one heuristically discovered data-flow pairing (spec
// §4.4 ChainDetector "Data-flow candidate discovery").
type ChainCandidate struct {
	FromStep    int                      `json:"fromStep"`
	ToStep      int                      `json:"toStep"`
	DataFlows   []model.StepInputMapping `json:"dataFlows"`
	Description string                   `json:"description"`
}

// ValidateChainsRequest submits heuristic chain candidates for confirmation.
type ValidateChainsRequest struct {
	Candidates []ChainCandidate `json:"candidates"`
}

// ChainVerdict is the gateway's per-candidate confirmation (spec §4.4 "LLM
// validation").
type ChainVerdict struct {
	Confirmed     bool                     `json:"confirmed"`
	InputMappings []model.StepInputMapping `json:"inputMappings"`
	IsParallel    bool                     `json:"isParallel"`
	IsPagination  bool                     `json:"isPagination"`
}

// ValidateChainsResponse returns one verdict per submitted candidate, in
// order.
type ValidateChainsResponse struct {
	Verdicts []ChainVerdict `json:"verdicts"`
}

// DetectAuthRequest submits the redacted per-name tally for auth refinement
// (spec §4.5 AuthDetector "LLM refinement").
type DetectAuthRequest struct {
	HeaderNames []string `json:"headerNames"`
	CookieNames []string `json:"cookieNames"`
	QueryNames  []string `json:"queryNames"`
	Heuristic   model.AuthPattern `json:"heuristic"`
}

// DetectAuthResponse refines field naming on top of the heuristic pattern.
type DetectAuthResponse struct {
	Pattern model.AuthPattern `json:"pattern"`
}

// WorkflowMetadataRequest asks the gateway to write the user-facing
// description and returns-shape for an assembled workflow (spec §4.6
// "Metadata").
type WorkflowMetadataRequest struct {
	Steps            []model.WorkflowStep `json:"steps"`
	LastStepFields   []model.FieldExtraction `json:"lastStepFields"`
}

// WorkflowMetadataResponse is the gateway's authored metadata.
type WorkflowMetadataResponse struct {
	Description string              `json:"description"`
	Returns     model.ReturnsSpec   `json:"returns"`
}

// NextActionContext is the ctx object passed to the decision gateway each
// playback iteration (spec §4.7 "Loop contract").
type NextActionContext struct {
	Intent       string           `json:"intent"`
	StepIntent   string           `json:"stepIntent"`
	StepIndex    int              `json:"stepIndex"`
	TotalSteps   int              `json:"totalSteps"`
	Completed    []model.CompletedAction `json:"completed"`
	Params       map[string]string `json:"params"`
	DefinedSteps []model.WorkflowStep `json:"definedSteps"`
	LastError    string           `json:"lastError,omitempty"`
	Insights     []string         `json:"insights"`
	Mode         string           `json:"mode"`
}

// NextActionResponse is the decision gateway's verdict for one playback
// iteration.
type NextActionResponse struct {
	Action         model.Action `json:"action"`
	StepAdvanced   bool         `json:"stepAdvanced"`
	WorkflowComplete bool       `json:"workflowComplete"`
}

// IntentRequest asks the gateway to summarize a workflow's purpose ahead of
// a playback run.
type IntentRequest struct {
	Definition *model.WorkflowDefinition `json:"definition"`
	Parameters map[string]string         `json:"parameters"`
}

// IntentResponse is the natural-language summary used as playback context.
type IntentResponse struct {
	Intent string `json:"intent"`
}
