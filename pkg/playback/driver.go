// Package playback drives a browser through a recorded WorkflowDefinition,
// adapting to pages that differ from the ones it was recorded on (spec
// §4.7 IntelligentPlayback).
package playback

import (
	"context"

	"github.com/flowscribe/workflow-core/pkg/model"
)

// InteractiveElement is one element a decision gateway may reference by
// index (spec §4.7 PageSnapshot contract).
type InteractiveElement struct {
	Index       int     `json:"index"`
	Tag         string  `json:"tag"`
	Type        string  `json:"type,omitempty"`
	Selector    string  `json:"selector"`
	AriaLabel   string  `json:"ariaLabel,omitempty"`
	TextContent string  `json:"textContent,omitempty"`
	Placeholder string  `json:"placeholder,omitempty"`
	Name        string  `json:"name,omitempty"`
	Role        string  `json:"role,omitempty"`
	Disabled    bool    `json:"disabled,omitempty"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// BoundingBox is an element's on-page rectangle.
type BoundingBox struct {
	X, Y, Width, Height float64
}

// FormField is one labeled field within a Form, referencing an
// InteractiveElement by index.
type FormField struct {
	Label        string `json:"label"`
	ElementIndex int    `json:"elementIndex"`
}

// Form is a detected form on the page.
type Form struct {
	Selector string      `json:"selector"`
	Fields   []FormField `json:"fields"`
}

// Heading is one heading element on the page.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// PageSnapshot is the browser driver's structural description of the
// current page (spec §4.7 "PageSnapshot").
type PageSnapshot struct {
	URL                 string               `json:"url"`
	Title               string               `json:"title"`
	InteractiveElements []InteractiveElement `json:"interactiveElements"`
	Forms               []Form               `json:"forms"`
	ModalPresent        bool                 `json:"modalPresent"`
	ModalSelector       string               `json:"modalSelector,omitempty"`
	Headings            []Heading            `json:"headings"`
}

// ActionResult is the outcome of dispatching one Action against the
// browser.
type ActionResult struct {
	Success bool
	Error   string
}

// ResolvedAction is a decision-gateway Action with its elementIndex already
// resolved to a concrete selector by the caller, per the driver contract
// (spec §4.7 "the index is the sole handle the decision gateway uses...
// callers resolve index → selector before executing").
type ResolvedAction struct {
	model.Action
	Selector string
}

// Driver is the browser automation surface IntelligentPlayback drives
// (spec §4.7 "External dependencies (injected)").
type Driver interface {
	CaptureScreenshot(ctx context.Context) ([]byte, error)
	SnapshotPage(ctx context.Context) (PageSnapshot, error)
	ExecuteAction(ctx context.Context, action ResolvedAction) (ActionResult, error)
	Navigate(ctx context.Context, url string) error
	AwaitLoadStable(ctx context.Context) error
}

// DecisionGateway is the LLM-backed decision surface: given the current
// screenshot, snapshot, loop context, and mode, it returns the next action
// to dispatch (spec §4.7).
type DecisionGateway interface {
	Summarize(ctx context.Context, definition *model.WorkflowDefinition, params map[string]string) (string, error)
	NextAction(ctx context.Context, screenshot []byte, snapshot PageSnapshot, loopCtx LoopContext) (Decision, error)
}

// LoopContext is the per-iteration context handed to the decision gateway
// (spec §4.7 "Loop contract": the `ctx` object).
type LoopContext struct {
	Intent       string
	StepIntent   string
	StepIndex    int
	TotalSteps   int
	Completed    []model.CompletedAction
	Params       map[string]string
	DefinedSteps []model.WorkflowStep
	LastError    string
	Insights     []string
	Mode         Mode
}

// Decision is the decision gateway's verdict for one iteration.
type Decision struct {
	Action           model.Action
	StepAdvanced     bool
	WorkflowComplete bool
}

// InsightStore reads past playback insights and appends new log entries
// (spec §4.7 "External dependencies (injected)").
type InsightStore interface {
	Load(ctx context.Context, sitePattern string, top int) ([]string, error)
	Append(ctx context.Context, entry model.PlaybackLogEntry) error
}
