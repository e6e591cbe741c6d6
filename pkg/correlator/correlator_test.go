package correlator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowscribe/workflow-core/pkg/model"
)

func at(ms int) time.Time {
	return time.Unix(0, int64(ms)*int64(time.Millisecond))
}

func TestCorrelateAssignsSingleMatchInWindow(t *testing.T) {
	c := New(nil)
	dom := []model.DOMEvent{{Timestamp: at(100), Kind: model.DOMEventClick}}
	net := []model.NetworkEvent{{Timestamp: at(150), Method: "GET", URL: "/api/orders?q=1234"}}

	result, err := c.Correlate(context.Background(), dom, net, []int{0}, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 0, result[0].DOMEventIndex)
	assert.Equal(t, 0, result[0].NetEventIndex)
}

func TestCorrelateIgnoresNonEligibleEvents(t *testing.T) {
	c := New(nil)
	dom := []model.DOMEvent{{Timestamp: at(100), Kind: model.DOMEventClick}}
	net := []model.NetworkEvent{{Timestamp: at(150)}}

	result, err := c.Correlate(context.Background(), dom, net, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestCorrelateAssignsOverlapToClosestWindowStart(t *testing.T) {
	c := New(nil)
	dom := []model.DOMEvent{
		{Timestamp: at(0), Kind: model.DOMEventClick},
		{Timestamp: at(100), Kind: model.DOMEventClick},
	}
	// Falls within both windows ([0,600) after the cap at 100+500, and [100,2100)); closer to dom[1]'s start.
	net := []model.NetworkEvent{{Timestamp: at(150)}}

	result, err := c.Correlate(context.Background(), dom, net, []int{0}, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 1, result[0].DOMEventIndex)
}

func TestCorrelateCapsWindowAtNextDomEvent(t *testing.T) {
	c := New(nil)
	dom := []model.DOMEvent{
		{Timestamp: at(0), Kind: model.DOMEventClick},
		{Timestamp: at(600), Kind: model.DOMEventClick},
	}
	// 1200ms falls in dom[0]'s uncapped window ([0,2000)) but after the cap
	// at nextDomEvent(600)+500=1100ms, so it should attach to dom[1] instead.
	net := []model.NetworkEvent{{Timestamp: at(1200)}}

	result, err := c.Correlate(context.Background(), dom, net, []int{0}, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 1, result[0].DOMEventIndex)
}

// TestCorrelateComputesMinimumTimeGapAcrossFannedOutEvents guards spec §4.2's
// "timeGap equals the minimum gap among the correlation's network events":
// one DOM event triggering three requests should report the smallest
// adjacent gap, not the largest or the span end-to-end.
func TestCorrelateComputesMinimumTimeGapAcrossFannedOutEvents(t *testing.T) {
	c := New(nil)
	dom := []model.DOMEvent{{Timestamp: at(0), Kind: model.DOMEventSubmit}}
	net := []model.NetworkEvent{
		{Timestamp: at(100)},
		{Timestamp: at(150)}, // 50ms after the first: the minimum gap.
		{Timestamp: at(900)}, // 750ms after the second.
	}

	result, err := c.Correlate(context.Background(), dom, net, []int{0, 1, 2}, nil)
	require.NoError(t, err)
	require.Len(t, result, 3)
	for _, corr := range result {
		assert.Equal(t, int64(50), corr.TimeGapMs)
	}
}

func TestCorrelateSingleEventGroupHasZeroTimeGap(t *testing.T) {
	c := New(nil)
	dom := []model.DOMEvent{{Timestamp: at(100), Kind: model.DOMEventClick}}
	net := []model.NetworkEvent{{Timestamp: at(150)}}

	result, err := c.Correlate(context.Background(), dom, net, []int{0}, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, int64(0), result[0].TimeGapMs)
}

func TestCorrelateNavigateGetsLongerWindow(t *testing.T) {
	c := New(nil)
	dom := []model.DOMEvent{{Timestamp: at(0), Kind: model.DOMEventNavigate}}
	net := []model.NetworkEvent{{Timestamp: at(4000)}}

	result, err := c.Correlate(context.Background(), dom, net, []int{0}, nil)
	require.NoError(t, err)
	assert.Len(t, result, 1)
}
