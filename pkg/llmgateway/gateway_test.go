package llmgateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowscribe/workflow-core/pkg/config"
	"github.com/flowscribe/workflow-core/pkg/masking"
	"github.com/flowscribe/workflow-core/pkg/model"
)

func newTestGateway(t *testing.T, backend Backend) *Gateway {
	t.Helper()
	g, err := New(&config.LLMConfig{ProxyURL: "https://proxy.internal", MaxRetries: 3, BackoffBase: time.Millisecond}, masking.NewService(), backend)
	require.NoError(t, err)
	return g
}

func TestExtractJSONFromFencedBlock(t *testing.T) {
	raw, err := extractJSON("here you go:\n```json\n{\"a\":1}\n```\n")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))
}

func TestExtractJSONFromPlainBody(t *testing.T) {
	raw, err := extractJSON(`{"a":1}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))
}

func TestExtractJSONRejectsGarbage(t *testing.T) {
	_, err := extractJSON("not json at all")
	require.Error(t, err)
}

func TestCallJSONSucceedsOnFirstAttempt(t *testing.T) {
	backend := &FakeBackend{Responses: []string{`{"confirmed":[true,false]}`}}
	g := newTestGateway(t, backend)

	resp, err := g.ValidateCorrelations(context.Background(), ValidateCorrelationsRequest{
		Candidates: []CorrelationCandidate{{DOMEventIndex: 0, NetEventIndex: 0}, {DOMEventIndex: 1, NetEventIndex: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, resp.Confirmed)
	assert.Len(t, backend.Calls, 1)
}

func TestCallJSONRetriesOnTransientThenSucceeds(t *testing.T) {
	backend := &FakeBackend{
		Errors:    []error{&TransientError{Err: assert.AnError}, nil},
		Responses: []string{"", `{"confirmed":[true]}`},
	}
	g := newTestGateway(t, backend)

	resp, err := g.ValidateCorrelations(context.Background(), ValidateCorrelationsRequest{})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, resp.Confirmed)
	assert.Len(t, backend.Calls, 2)
}

func TestCallJSONDoesNotRetryPermanentFailure(t *testing.T) {
	backend := &FakeBackend{Errors: []error{assert.AnError}}
	g := newTestGateway(t, backend)

	_, err := g.ValidateCorrelations(context.Background(), ValidateCorrelationsRequest{})
	require.Error(t, err)
	assert.Len(t, backend.Calls, 1)
}

func TestCallJSONFailsAfterExhaustingRetries(t *testing.T) {
	transientErr := &TransientError{Err: assert.AnError}
	backend := &FakeBackend{Errors: []error{transientErr, transientErr, transientErr, transientErr}}
	g := newTestGateway(t, backend)

	_, err := g.ValidateCorrelations(context.Background(), ValidateCorrelationsRequest{})
	require.Error(t, err)
	assert.Len(t, backend.Calls, 4)
}

func TestNewReturnsCredentialMissingWithoutBackendOverride(t *testing.T) {
	_, err := New(&config.LLMConfig{MaxRetries: 3, BackoffBase: time.Second}, masking.NewService(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCredentialMissing)
}

func TestClassifyRedactsHeadersBeforePrompting(t *testing.T) {
	backend := &FakeBackend{Responses: []string{`{"classifications":["core"]}`}}
	g := newTestGateway(t, backend)

	_, err := g.Classify(context.Background(), ClassifyRequest{
		Events: []model.NetworkEvent{{
			Method:         "GET",
			URL:            "https://example.com/api/orders",
			RequestHeaders: map[string]string{"Authorization": "Bearer super-secret-token"},
		}},
	})
	require.NoError(t, err)
	require.Len(t, backend.Calls, 1)
	assert.NotContains(t, backend.Calls[0].Prompt, "super-secret-token")
}
