package parameterizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowscribe/workflow-core/pkg/model"
)

func TestParameterizeReturnsEmptyForSingleSession(t *testing.T) {
	p := New(nil)
	sessions := []model.Session{{ID: "s1"}}
	defs, err := p.Parameterize(context.Background(), sessions, [][]model.Correlation{{}}, [][]int{{}})
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestParameterizeMechanicalNamingOnTwoSessions(t *testing.T) {
	s1 := model.Session{ID: "s1", NetEvents: []model.NetworkEvent{
		{Method: "GET", URL: "https://app.example.com/api/orders?q=1234"},
	}}
	s2 := model.Session{ID: "s2", NetEvents: []model.NetworkEvent{
		{Method: "GET", URL: "https://app.example.com/api/orders?q=5678"},
	}}

	p := New(nil)
	defs, err := p.Parameterize(
		context.Background(),
		[]model.Session{s1, s2},
		[][]model.Correlation{{{DOMEventIndex: 0, NetEventIndex: 0}}, {{DOMEventIndex: 0, NetEventIndex: 0}}},
		[][]int{{0}, {0}},
	)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "q", defs[0].UsedIn[0].Key)
	assert.Equal(t, model.LocationQuery, defs[0].UsedIn[0].Location)
	assert.Equal(t, 0, defs[0].UsedIn[0].Step)
}

func TestDiffQueryParamsDetectsVaryingKey(t *testing.T) {
	events := []model.NetworkEvent{
		{URL: "https://a.example.com/x?q=1234&fixed=a"},
		{URL: "https://a.example.com/x?q=5678&fixed=a"},
	}
	parts := diffQueryParams(events)
	require.Len(t, parts, 1)
	assert.Equal(t, "q", parts[0].key)
	assert.ElementsMatch(t, []string{"1234", "5678"}, parts[0].values)
}

func TestDiffBodyFlattensJSON(t *testing.T) {
	events := []model.NetworkEvent{
		{RequestBody: `{"customer_id":42,"note":"a"}`},
		{RequestBody: `{"customer_id":43,"note":"a"}`},
	}
	parts := diffBody(events)
	require.Len(t, parts, 1)
	assert.Equal(t, "customer_id", parts[0].key)
}

func TestDiffHeadersFiltersEphemeral(t *testing.T) {
	events := []model.NetworkEvent{
		{RequestHeaders: map[string]string{"User-Agent": "a", "X-Custom": "1"}},
		{RequestHeaders: map[string]string{"User-Agent": "b", "X-Custom": "2"}},
	}
	parts := diffHeaders(events)
	require.Len(t, parts, 1)
	assert.Equal(t, "x-custom", parts[0].key)
}

func TestInferTypeDetectsNumberAndBoolean(t *testing.T) {
	assert.Equal(t, model.ParamTypeNumber, inferType([]string{"1", "2"}))
	assert.Equal(t, model.ParamTypeBoolean, inferType([]string{"true", "false"}))
	assert.Equal(t, model.ParamTypeString, inferType([]string{"a", "b"}))
}

func TestSanitizeNameProducesCamelCase(t *testing.T) {
	assert.Equal(t, "customerId", sanitizeName("customer_id"))
	assert.Equal(t, "q", sanitizeName("q"))
}
