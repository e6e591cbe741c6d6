package playback

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flowscribe/workflow-core/pkg/llmgateway"
	"github.com/flowscribe/workflow-core/pkg/model"
)

// GatewayDecisionGateway adapts the shared llmgateway.Gateway to the
// DecisionGateway interface this package drives against.
type GatewayDecisionGateway struct {
	gateway *llmgateway.Gateway
}

func NewGatewayDecisionGateway(gateway *llmgateway.Gateway) *GatewayDecisionGateway {
	return &GatewayDecisionGateway{gateway: gateway}
}

func (g *GatewayDecisionGateway) Summarize(ctx context.Context, definition *model.WorkflowDefinition, params map[string]string) (string, error) {
	resp, err := g.gateway.Intent(ctx, llmgateway.IntentRequest{Definition: definition, Parameters: params})
	if err != nil {
		return "", fmt.Errorf("summarize intent: %w", err)
	}
	return resp.Intent, nil
}

func (g *GatewayDecisionGateway) NextAction(ctx context.Context, screenshot []byte, snapshot PageSnapshot, loopCtx LoopContext) (Decision, error) {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return Decision{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	resp, err := g.gateway.NextAction(ctx, screenshot, snapshotJSON, llmgateway.NextActionContext{
		Intent:       loopCtx.Intent,
		StepIntent:   loopCtx.StepIntent,
		StepIndex:    loopCtx.StepIndex,
		TotalSteps:   loopCtx.TotalSteps,
		Completed:    loopCtx.Completed,
		Params:       loopCtx.Params,
		DefinedSteps: loopCtx.DefinedSteps,
		LastError:    loopCtx.LastError,
		Insights:     loopCtx.Insights,
		Mode:         string(loopCtx.Mode),
	})
	if err != nil {
		return Decision{}, fmt.Errorf("next action: %w", err)
	}
	return Decision{Action: resp.Action, StepAdvanced: resp.StepAdvanced, WorkflowComplete: resp.WorkflowComplete}, nil
}
