package chaindetector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowscribe/workflow-core/pkg/model"
)

func TestDetectTwoStepChain(t *testing.T) {
	steps := []model.NetworkEvent{
		{Method: "GET", URL: "https://app.example.com/customers?name=Acme", ResponseBody: `{"id":42}`},
		{Method: "POST", URL: "https://app.example.com/orders", RequestBody: `{"customer_id":42}`},
	}

	d := New(nil)
	result, err := d.Detect(context.Background(), steps, nil)
	require.NoError(t, err)

	require.Len(t, result.Chains, 1)
	assert.Equal(t, 0, result.Chains[0].FromStep)
	assert.Equal(t, 1, result.Chains[0].ToStep)
	require.Len(t, result.Chains[0].InputMappings, 1)
	assert.Equal(t, "$.id", result.Chains[0].InputMappings[0].SourceJSONPath)
	assert.Equal(t, "customer_id", result.Chains[0].InputMappings[0].TargetKey)
	assert.Equal(t, []int{0, 1}, result.ExecutionOrder)
	assert.Empty(t, result.ParallelGroups)
}

func TestDetectParallelIndependentSteps(t *testing.T) {
	steps := []model.NetworkEvent{
		{Method: "GET", URL: "https://app.example.com/a", ResponseBody: `{"x":"aa"}`},
		{Method: "GET", URL: "https://app.example.com/b", ResponseBody: `{"y":"bb"}`},
	}

	d := New(nil)
	result, err := d.Detect(context.Background(), steps, nil)
	require.NoError(t, err)

	assert.Empty(t, result.Chains)
	require.Len(t, result.ParallelGroups, 1)
	assert.ElementsMatch(t, []int{0, 1}, result.ParallelGroups[0])
}

func TestDetectPaginationFlagsAllSteps(t *testing.T) {
	steps := []model.NetworkEvent{
		{Method: "GET", URL: "https://app.example.com/api/list?page=1"},
		{Method: "GET", URL: "https://app.example.com/api/list?page=2"},
		{Method: "GET", URL: "https://app.example.com/api/list?page=3"},
	}

	d := New(nil)
	result, err := d.Detect(context.Background(), steps, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 2}, result.PaginationSteps)
}

func TestExecutionOrderIsPermutation(t *testing.T) {
	chains := []Chain{{FromStep: 0, ToStep: 2}, {FromStep: 1, ToStep: 2}}
	order := buildExecutionOrder(3, chains)
	assert.ElementsMatch(t, []int{0, 1, 2}, order)
}

func TestBuildExecutionOrderDefensiveOnCycle(t *testing.T) {
	// Should not occur given fromStep < toStep by construction, but the
	// topological sort must not hang or drop nodes regardless.
	chains := []Chain{{FromStep: 0, ToStep: 1}, {FromStep: 1, ToStep: 0}}
	order := buildExecutionOrder(2, chains)
	assert.Len(t, order, 2)
}
