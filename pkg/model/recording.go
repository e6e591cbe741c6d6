package model

import "time"

// Session is one recorded browser interaction: a DOM event stream paired with
// the network events it triggered, bounded by startedAt/endedAt.
type Session struct {
	ID           string         `json:"id"`
	WorkflowName string         `json:"workflowName"`
	SiteURL      string         `json:"siteUrl"`
	StartedAt    time.Time      `json:"startedAt"`
	EndedAt      time.Time      `json:"endedAt"`
	DOMEvents    []DOMEvent     `json:"domEvents"`
	NetEvents    []NetworkEvent `json:"networkEvents"`
	Correlations []Correlation  `json:"correlations,omitempty"`
}

// DOMEventKind enumerates the user-interaction kinds a recorder captures.
type DOMEventKind string

const (
	DOMEventClick    DOMEventKind = "click"
	DOMEventInput    DOMEventKind = "input"
	DOMEventChange   DOMEventKind = "change"
	DOMEventSubmit   DOMEventKind = "submit"
	DOMEventNavigate DOMEventKind = "navigate"
	DOMEventKeydown  DOMEventKind = "keydown"
)

// DOMEvent is one recorded user interaction with the page.
type DOMEvent struct {
	Timestamp        time.Time    `json:"timestamp"`
	Kind             DOMEventKind `json:"kind"`
	Selector         string       `json:"selector"`
	FallbackSelector []string     `json:"fallbackSelectors,omitempty"`
	AriaLabel        string       `json:"ariaLabel,omitempty"`
	InnerText        string       `json:"innerText,omitempty"`
	Value            string       `json:"value,omitempty"`
}

// NetworkClassification is the noise filter's verdict for a network event.
type NetworkClassification string

const (
	ClassificationCore       NetworkClassification = "core"
	ClassificationSupporting NetworkClassification = "supporting"
	ClassificationNoise      NetworkClassification = "noise"
)

// NetworkEvent is one HTTP request/response pair observed during a session.
type NetworkEvent struct {
	Timestamp       time.Time             `json:"timestamp"`
	Method          string                `json:"method"`
	URL             string                `json:"url"`
	RequestHeaders  map[string]string     `json:"requestHeaders"`
	RequestBody     string                `json:"requestBody,omitempty"`
	ResponseStatus  int                   `json:"responseStatus"`
	ResponseHeaders map[string]string     `json:"responseHeaders,omitempty"`
	ResponseBody    string                `json:"responseBody,omitempty"`
	Classification  NetworkClassification `json:"classification,omitempty"`
}

// Correlation links one DOM event to one of the network events it triggered,
// within a single session (spec §4.2 Correlator, Stage 2). A DOM event that
// fans out into several network events (e.g. a page load cascading into
// multiple XHRs) produces one Correlation per network event, all sharing
// DOMEventIndex; TimeGapMs is the minimum gap, in milliseconds, among that
// whole group's network events, and is 0 when the group has only one.
type Correlation struct {
	DOMEventIndex int   `json:"domEventIndex"`
	NetEventIndex int   `json:"netEventIndex"`
	TimeGapMs     int64 `json:"timeGapMs"`
}
