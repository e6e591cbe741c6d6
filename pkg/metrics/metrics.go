// Package metrics exposes Prometheus collectors for the analysis pipeline
// and playback runner, grounded on the package-level promauto vars pattern
// in tombee-conductor's internal/controller/filewatcher/metrics.go.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysisRunsTotal counts Pipeline.Analyze invocations by outcome.
	AnalysisRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_core_analysis_runs_total",
			Help: "Total analysis pipeline runs by outcome (success, error).",
		},
		[]string{"outcome"},
	)

	// AnalysisDurationSeconds observes how long Pipeline.Analyze takes end to end.
	AnalysisDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "workflow_core_analysis_duration_seconds",
			Help:    "Duration of a full six-stage analysis run.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// AssembledConfidence counts assembled WorkflowDefinitions by confidence bucket.
	AssembledConfidence = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_core_assembled_confidence_total",
			Help: "Assembled WorkflowDefinitions by confidence bucket (low, medium, high).",
		},
		[]string{"confidence"},
	)

	// PlaybackRunsTotal counts IntelligentPlayback runs by terminal outcome.
	PlaybackRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_core_playback_runs_total",
			Help: "Total playback runs by outcome (completed, failed, partial).",
		},
		[]string{"outcome"},
	)

	// PlaybackActionsTotal counts individual dispatched actions by mode and success.
	PlaybackActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_core_playback_actions_total",
			Help: "Dispatched playback actions by mode (guided, recovery, generative) and success.",
		},
		[]string{"mode", "success"},
	)

	// PlaybackRetriesTotal counts per-step retry attempts consumed during playback.
	PlaybackRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "workflow_core_playback_retries_total",
			Help: "Total retry attempts consumed across all playback runs.",
		},
	)

	// LLMRequestsTotal counts llmgateway calls by function name and outcome.
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_core_llm_requests_total",
			Help: "LLM gateway calls by function name and outcome (ok, error, degraded).",
		},
		[]string{"function", "outcome"},
	)
)
