package model

// ParamType is the inferred JSON type of a ParameterDef's values.
type ParamType string

const (
	ParamTypeString  ParamType = "string"
	ParamTypeNumber  ParamType = "number"
	ParamTypeBoolean ParamType = "boolean"
)

// ParamLocation identifies where a parameter's value is substituted in a step.
type ParamLocation string

const (
	LocationPath   ParamLocation = "path"
	LocationQuery  ParamLocation = "query"
	LocationBody   ParamLocation = "body"
	LocationHeader ParamLocation = "header"
)

// ParamUsage is one place a ParameterDef's value is substituted (spec §4.3
// Parameterizer: "usedIn list merging all locations where this same semantic
// input appears").
type ParamUsage struct {
	Step     int           `json:"step"`
	Location ParamLocation `json:"location"`
	Key      string        `json:"key"`
}

// ParameterDef is one named input a workflow replay must supply.
type ParameterDef struct {
	Name        string       `json:"name"`
	Type        ParamType    `json:"type"`
	Description string       `json:"description,omitempty"`
	Example     string       `json:"example,omitempty"`
	UsedIn      []ParamUsage `json:"usedIn"`
}

// StepInputMapping threads a value produced by an earlier step's response
// into a later step's request (spec §4.4 ChainDetector).
type StepInputMapping struct {
	SourceStep     int           `json:"sourceStep"`
	SourceJSONPath string        `json:"sourceJsonPath"`
	TargetLocation ParamLocation `json:"targetLocation"`
	TargetKey      string        `json:"targetKey"`
}

// FieldExtraction is one leaf value pulled out of a step's response body.
type FieldExtraction struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Example     string `json:"example,omitempty"`
}

// LoopCondition marks a step as part of a pagination loop (spec §4.4
// pagination detection).
type LoopCondition struct {
	ParamName string `json:"paramName"`
	StartsAt  string `json:"startsAt,omitempty"`
}

// DOMAction is the browser interaction a step replays deterministically,
// distinct from IntelligentPlayback's snapshot-indexed Action (spec §9:
// "fallback selectors are heuristic hints only... deterministic replay is
// the path that consumes them").
type DOMAction struct {
	Kind             DOMEventKind `json:"kind"`
	Selector         string       `json:"selector"`
	FallbackSelector []string     `json:"fallbackSelectors,omitempty"`
	AriaLabel        string       `json:"ariaLabel,omitempty"`
	InnerText        string       `json:"innerText,omitempty"`
	Value            string       `json:"value,omitempty"`
	ParameterRef     string       `json:"parameterRef,omitempty"`
}

// WorkflowStep is one request/action pair in an assembled WorkflowDefinition.
type WorkflowStep struct {
	Order           int                `json:"order"`
	Description     string             `json:"description"`
	Method          string             `json:"method"`
	BaseURL         string             `json:"baseUrl"`
	PathTemplate    string             `json:"pathTemplate"`
	QueryTemplate   map[string]string  `json:"queryTemplate,omitempty"`
	BodyTemplate    string             `json:"bodyTemplate,omitempty"`
	Headers         map[string]string  `json:"headers,omitempty"`
	DOMAction       *DOMAction         `json:"domAction,omitempty"`
	DependsOn       []int              `json:"dependsOn,omitempty"`
	InputMappings   []StepInputMapping `json:"inputMappings,omitempty"`
	ExtractFields   []FieldExtraction  `json:"extractFields,omitempty"`
	IsLoopStep      bool               `json:"isLoopStep,omitempty"`
	LoopCondition   *LoopCondition     `json:"loopCondition,omitempty"`
}

// AuthLocation identifies where a credential field is presented.
type AuthLocation string

const (
	AuthLocationHeader AuthLocation = "header"
	AuthLocationCookie AuthLocation = "cookie"
	AuthLocationQuery  AuthLocation = "query"
)

// AuthScheme classifies the authentication mechanism a workflow depends on
// (spec §4.5 AuthDetector classification priority order).
type AuthScheme string

const (
	AuthSchemeBearer AuthScheme = "bearer"
	AuthSchemeAPIKey AuthScheme = "api_key"
	AuthSchemeCookie AuthScheme = "cookie"
	AuthSchemeCustom AuthScheme = "custom"
)

// AuthCredentialField is one credential slot a replay must fill — never
// populated with an actual value (spec §4.5, §9 "the core never stores a
// credential value").
type AuthCredentialField struct {
	Name     string       `json:"name"`
	Location AuthLocation `json:"location"`
	IsCSRF   bool         `json:"isCsrf,omitempty"`
}

// AuthPattern is the inferred authentication scheme for a workflow.
type AuthPattern struct {
	Scheme     AuthScheme            `json:"scheme"`
	Fields     []AuthCredentialField `json:"fields,omitempty"`
}

// Confidence is the assembler's coarse confidence bucket (spec §4.6).
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ReturnsSpec documents the shape of data a workflow hands back on success.
type ReturnsSpec struct {
	Description string            `json:"description,omitempty"`
	Fields      []FieldExtraction `json:"fields,omitempty"`
}

// WorkflowDefinition is the pipeline's terminal artifact: a replayable,
// parameterized description of a recorded browser workflow.
type WorkflowDefinition struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Steps          []WorkflowStep `json:"steps"`
	Parameters     []ParameterDef `json:"parameters,omitempty"`
	Auth           AuthPattern    `json:"auth"`
	Returns        ReturnsSpec    `json:"returns"`
	ParallelGroups [][]int        `json:"parallelGroups,omitempty"`
	ExecutionOrder []int          `json:"executionOrder"`
	Confidence     Confidence     `json:"confidence"`
	RecordingCount int            `json:"recordingCount"`
	LastRecorded   string         `json:"lastRecorded"`
}
