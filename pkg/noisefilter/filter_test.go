package noisefilter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowscribe/workflow-core/pkg/model"
)

func TestClassifyDropsTrackingAndStaticAndOptions(t *testing.T) {
	f := New(nil)
	session := model.Session{
		ID: "s1",
		NetEvents: []model.NetworkEvent{
			{Method: "GET", URL: "https://www.google-analytics.com/collect"},
			{Method: "GET", URL: "https://app.example.com/styles.css"},
			{Method: "OPTIONS", URL: "https://app.example.com/api/orders"},
			{Method: "GET", URL: "https://app.example.com/api/orders?q=1234"},
		},
	}

	result, err := f.Classify(context.Background(), session, []model.Session{session})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, result.CoreIndices)
	assert.Equal(t, 3, result.NoiseCount)
}

func TestClassifyDropsGloballyIdenticalCallsAcrossSessions(t *testing.T) {
	common := model.NetworkEvent{Method: "GET", URL: "https://app.example.com/api/config"}
	s1 := model.Session{ID: "s1", NetEvents: []model.NetworkEvent{common, {Method: "GET", URL: "https://app.example.com/api/orders?q=1234"}}}
	s2 := model.Session{ID: "s2", NetEvents: []model.NetworkEvent{common, {Method: "GET", URL: "https://app.example.com/api/orders?q=5678"}}}

	f := New(nil)
	result, err := f.Classify(context.Background(), s1, []model.Session{s1, s2})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, result.CoreIndices)
}

func TestClassifyWithoutGatewayTreatsSurvivorsAsCore(t *testing.T) {
	f := New(nil)
	session := model.Session{ID: "s1", NetEvents: []model.NetworkEvent{
		{Method: "GET", URL: "https://app.example.com/api/orders"},
	}}

	result, err := f.Classify(context.Background(), session, []model.Session{session})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, result.CoreIndices)
	assert.Empty(t, result.SupportingIndices)
}

func TestClassifyAllRunsEverySession(t *testing.T) {
	f := New(nil)
	sessions := []model.Session{
		{ID: "s1", StartedAt: time.Now(), NetEvents: []model.NetworkEvent{{Method: "GET", URL: "https://a.example.com/x"}}},
		{ID: "s2", StartedAt: time.Now(), NetEvents: []model.NetworkEvent{{Method: "GET", URL: "https://a.example.com/y"}}},
	}

	results, err := f.ClassifyAll(context.Background(), sessions)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []int{0}, results[0].CoreIndices)
	assert.Equal(t, []int{0}, results[1].CoreIndices)
}
