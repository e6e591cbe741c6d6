package llmgateway

import (
	"context"
	"encoding/json"
	"fmt"
)

// Each function below declares an exact response schema (spec §6: "Each
// function... declares an exact JSON schema for its response") and redacts
// any network-event headers before they reach a prompt.

func (g *Gateway) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error) {
	for i := range req.Events {
		req.Events[i].RequestHeaders = g.redactHeadersForPrompt(req.Events[i].RequestHeaders)
		req.Events[i].ResponseHeaders = g.redactHeadersForPrompt(req.Events[i].ResponseHeaders)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
	}

	var resp ClassifyResponse
	system := "You classify recorded network events as core, supporting, or noise for a workflow-recording pipeline. Respond with JSON only."
	if err := g.callJSON(ctx, "classify", system, string(payload), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *Gateway) ValidateCorrelations(ctx context.Context, req ValidateCorrelationsRequest) (*ValidateCorrelationsResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal correlation request: %w", err)
	}

	var resp ValidateCorrelationsResponse
	system := "You confirm or reject candidate pairings between a user's click/input and the network request it triggered. Respond with JSON only."
	if err := g.callJSON(ctx, "validate_correlations", system, string(payload), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *Gateway) Parameterize(ctx context.Context, req ParameterizeRequest) (*ParameterizeResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal parameterize request: %w", err)
	}

	var resp ParameterizeResponse
	system := "You name the varying parts of a recorded browser workflow as reusable parameters, inferring type from observed values. Respond with JSON only."
	if err := g.callJSON(ctx, "parameterize", system, string(payload), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *Gateway) ValidateChains(ctx context.Context, req ValidateChainsRequest) (*ValidateChainsResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chain validation request: %w", err)
	}

	var resp ValidateChainsResponse
	system := "You confirm candidate data-flow dependencies between workflow steps, flag parallelism, and flag pagination loops. Respond with JSON only."
	if err := g.callJSON(ctx, "validate_chains", system, string(payload), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *Gateway) DetectAuth(ctx context.Context, req DetectAuthRequest) (*DetectAuthResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal auth detection request: %w", err)
	}

	var resp DetectAuthResponse
	system := "You refine the naming of authentication credential fields inferred from request headers, cookies, and query parameters. Never invent values. Respond with JSON only."
	if err := g.callJSON(ctx, "detect_auth", system, string(payload), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *Gateway) WorkflowMetadata(ctx context.Context, req WorkflowMetadataRequest) (*WorkflowMetadataResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal workflow metadata request: %w", err)
	}

	var resp WorkflowMetadataResponse
	system := "You write a short human-facing description of a recorded browser workflow and describe the shape of data it returns. Respond with JSON only."
	if err := g.callJSON(ctx, "workflow_metadata", system, string(payload), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *Gateway) NextAction(ctx context.Context, screenshot []byte, snapshotJSON []byte, nctx NextActionContext) (*NextActionResponse, error) {
	prompt := fmt.Sprintf("snapshot: %s\ncontext: %s", snapshotJSON, mustJSON(nctx))

	var resp NextActionResponse
	system := "You drive a browser through a recorded workflow. Given the page screenshot, its interactive elements, and the workflow's intent, choose exactly one next action. Respond with JSON only."
	images := [][]byte{screenshot}
	if err := g.callJSON(ctx, "next_action", system, prompt, images, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *Gateway) Intent(ctx context.Context, req IntentRequest) (*IntentResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal intent request: %w", err)
	}

	var resp IntentResponse
	system := "You summarize the purpose of a recorded browser workflow in one or two sentences, given its steps and parameters. Respond with JSON only."
	if err := g.callJSON(ctx, "intent", system, string(payload), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
