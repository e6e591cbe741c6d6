package playback

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/flowscribe/workflow-core/pkg/config"
	"github.com/flowscribe/workflow-core/pkg/metrics"
	"github.com/flowscribe/workflow-core/pkg/model"
)

// Mode is the per-iteration strategy the decision gateway is told to use
// (spec §4.7 "Mode selection per iteration").
type Mode string

const (
	ModeGuided     Mode = "guided"
	ModeRecovery   Mode = "recovery"
	ModeGenerative Mode = "generative"
)

// Runner drives one IntelligentPlayback run against a single browser tab
// (spec §4.7).
type Runner struct {
	driver   Driver
	gateway  DecisionGateway
	insights InsightStore
	cfg      *config.PlaybackConfig
}

func New(driver Driver, gateway DecisionGateway, insights InsightStore, cfg *config.PlaybackConfig) *Runner {
	if cfg == nil {
		cfg = config.DefaultPlaybackConfig()
	}
	return &Runner{driver: driver, gateway: gateway, insights: insights, cfg: cfg}
}

// Run executes the full loop contract of spec §4.7 against the given
// definition, identified by workflowID and sitePattern for insight lookup.
func (r *Runner) Run(ctx context.Context, definition *model.WorkflowDefinition, params map[string]string, workflowID, sitePattern string) (model.PlaybackLogEntry, error) {
	startedAt := time.Now()

	intent, err := r.gateway.Summarize(ctx, definition, params)
	if err != nil {
		return model.PlaybackLogEntry{}, fmt.Errorf("playback: summarize intent: %w", err)
	}

	insights, err := r.insights.Load(ctx, sitePattern, r.cfg.InsightPageSize)
	if err != nil {
		slog.Warn("playback: failed to load insights, continuing without them", "error", err)
		insights = nil
	}

	stepIndex, retries := 0, 0
	var lastError string
	var completed []model.CompletedAction
	totalSteps := len(definition.Steps)

	outcome := model.PlaybackPartial

loop:
	for i := 0; i < r.cfg.MaxActions; i++ {
		select {
		case <-ctx.Done():
			return model.PlaybackLogEntry{}, ctx.Err()
		default:
		}

		screenshot, err := r.driver.CaptureScreenshot(ctx)
		if err != nil {
			return model.PlaybackLogEntry{}, fmt.Errorf("playback: capture screenshot: %w", err)
		}
		snapshot, err := r.driver.SnapshotPage(ctx)
		if err != nil {
			return model.PlaybackLogEntry{}, fmt.Errorf("playback: snapshot page: %w", err)
		}

		mode := selectMode(lastError, stepIndex, totalSteps)
		loopCtx := LoopContext{
			Intent:       intent,
			StepIntent:   stepIntent(definition, stepIndex),
			StepIndex:    stepIndex,
			TotalSteps:   totalSteps,
			Completed:    completed,
			Params:       params,
			DefinedSteps: definition.Steps,
			LastError:    lastError,
			Insights:     insights,
			Mode:         mode,
		}

		decision, err := r.gateway.NextAction(ctx, screenshot, snapshot, loopCtx)
		if err != nil {
			return model.PlaybackLogEntry{}, fmt.Errorf("playback: next action: %w", err)
		}

		switch decision.Action.Kind {
		case model.ActionDone:
			outcome = model.PlaybackCompleted
			break loop
		case model.ActionFail:
			outcome = model.PlaybackFailed
			break loop
		}

		result, err := r.dispatch(ctx, decision.Action, snapshot)
		if err != nil {
			return model.PlaybackLogEntry{}, fmt.Errorf("playback: execute action: %w", err)
		}

		completed = append(completed, model.CompletedAction{Action: decision.Action, Success: result.Success, Error: result.Error})
		lastError = result.Error
		metrics.PlaybackActionsTotal.WithLabelValues(string(mode), strconv.FormatBool(result.Success)).Inc()

		if !result.Success {
			retries++
			metrics.PlaybackRetriesTotal.Inc()
			if retries >= r.cfg.MaxRetries {
				outcome = model.PlaybackFailed
				break loop
			}
		} else {
			retries = 0
			if decision.StepAdvanced && stepIndex < totalSteps-1 {
				stepIndex++
			}
		}

		if err := r.driver.AwaitLoadStable(ctx); err != nil {
			slog.Warn("playback: await load stable failed, continuing", "error", err)
		}
	}

	metrics.PlaybackRunsTotal.WithLabelValues(string(outcome)).Inc()

	entry := buildLogEntry(workflowID, sitePattern, startedAt, completed, outcome, lastError)
	if err := r.insights.Append(ctx, entry); err != nil {
		slog.Warn("playback: failed to append insight log entry", "error", err)
	}
	return entry, nil
}

// dispatch handles the three index-free action kinds directly and resolves
// every other kind's elementIndex to a concrete selector before executing
// (spec §4.7 "callers resolve index → selector before executing").
func (r *Runner) dispatch(ctx context.Context, action model.Action, snapshot PageSnapshot) (ActionResult, error) {
	switch action.Kind {
	case model.ActionWait, model.ActionScroll:
		return r.driver.ExecuteAction(ctx, ResolvedAction{Action: action})
	case model.ActionNavigate:
		if err := r.driver.Navigate(ctx, action.Value); err != nil {
			return ActionResult{Success: false, Error: err.Error()}, nil
		}
		return ActionResult{Success: true}, nil
	default:
		if action.ElementIndex < 0 || action.ElementIndex >= len(snapshot.InteractiveElements) {
			return ActionResult{Success: false, Error: fmt.Sprintf("element index %d out of range", action.ElementIndex)}, nil
		}
		selector := snapshot.InteractiveElements[action.ElementIndex].Selector
		return r.driver.ExecuteAction(ctx, ResolvedAction{Action: action, Selector: selector})
	}
}

// selectMode picks this iteration's mode: recovery after a failure, guided
// while a defined step remains, generative otherwise (spec §4.7 "Mode
// selection per iteration").
func selectMode(lastError string, stepIndex, totalSteps int) Mode {
	if lastError != "" {
		return ModeRecovery
	}
	if stepIndex < totalSteps {
		return ModeGuided
	}
	return ModeGenerative
}

func stepIntent(definition *model.WorkflowDefinition, stepIndex int) string {
	if stepIndex < 0 || stepIndex >= len(definition.Steps) {
		return ""
	}
	return definition.Steps[stepIndex].Description
}
