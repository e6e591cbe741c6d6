package playback

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowscribe/workflow-core/pkg/model"
)

const maxErrorReasons = 3

// buildLogEntry composes the durable PlaybackLogEntry after a run: an
// outcome-prefixed summary carrying per-action-kind success counts, and the
// first few unique error reasons (spec §4.7 "Insight construction"). Only
// the Summary string is read back on the next run (the repository's
// ListInsightsBySitePattern returns summaries); ErrorReasons are stored on
// the entry but are not part of that read-back.
func buildLogEntry(workflowID, sitePattern string, startedAt time.Time, completed []model.CompletedAction, outcome model.PlaybackOutcome, lastError string) model.PlaybackLogEntry {
	return model.PlaybackLogEntry{
		ID:               uuid.NewString(),
		WorkflowID:       workflowID,
		SitePattern:      sitePattern,
		StartedAt:        startedAt,
		EndedAt:          time.Now(),
		Outcome:          outcome,
		CompletedActions: completed,
		Summary:          summarize(outcome, completed),
		ErrorReasons:     uniqueErrorReasons(completed, maxErrorReasons),
	}
}

// summarize builds the outcome-prefixed, per-kind-success-count summary
// string.
func summarize(outcome model.PlaybackOutcome, completed []model.CompletedAction) string {
	successByKind := map[model.ActionKind]int{}
	for _, c := range completed {
		if c.Success {
			successByKind[c.Action.Kind]++
		}
	}

	summary := fmt.Sprintf("%s after %d actions", outcome, len(completed))
	for _, kind := range []model.ActionKind{
		model.ActionClick, model.ActionInput, model.ActionSelect,
		model.ActionKeydown, model.ActionNavigate, model.ActionWait, model.ActionScroll,
	} {
		if n := successByKind[kind]; n > 0 {
			summary += fmt.Sprintf(", %d %s succeeded", n, kind)
		}
	}
	return summary
}

// uniqueErrorReasons returns the first `max` distinct, non-empty error
// messages in encounter order.
func uniqueErrorReasons(completed []model.CompletedAction, max int) []string {
	seen := map[string]bool{}
	var reasons []string
	for _, c := range completed {
		if c.Error == "" || seen[c.Error] {
			continue
		}
		seen[c.Error] = true
		reasons = append(reasons, c.Error)
		if len(reasons) >= max {
			break
		}
	}
	return reasons
}
