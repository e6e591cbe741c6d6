package playback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowscribe/workflow-core/pkg/config"
	"github.com/flowscribe/workflow-core/pkg/model"
)

type fakeDriver struct {
	executeResults []ActionResult
	executeCalls   []ResolvedAction
	navigateCalls  []string
}

func (f *fakeDriver) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	return []byte("png"), nil
}

func (f *fakeDriver) SnapshotPage(ctx context.Context) (PageSnapshot, error) {
	return PageSnapshot{
		URL: "https://example.com",
		InteractiveElements: []InteractiveElement{
			{Index: 0, Tag: "button", Selector: "#submit"},
		},
	}, nil
}

func (f *fakeDriver) ExecuteAction(ctx context.Context, action ResolvedAction) (ActionResult, error) {
	f.executeCalls = append(f.executeCalls, action)
	idx := len(f.executeCalls) - 1
	if idx < len(f.executeResults) {
		return f.executeResults[idx], nil
	}
	return ActionResult{Success: true}, nil
}

func (f *fakeDriver) Navigate(ctx context.Context, url string) error {
	f.navigateCalls = append(f.navigateCalls, url)
	return nil
}

func (f *fakeDriver) AwaitLoadStable(ctx context.Context) error { return nil }

type scriptedGateway struct {
	actions []model.Action
	index   int
}

func (g *scriptedGateway) Summarize(ctx context.Context, definition *model.WorkflowDefinition, params map[string]string) (string, error) {
	return "replay the recorded workflow", nil
}

func (g *scriptedGateway) NextAction(ctx context.Context, screenshot []byte, snapshot PageSnapshot, loopCtx LoopContext) (Decision, error) {
	action := g.actions[g.index]
	g.index++
	return Decision{Action: action, StepAdvanced: true}, nil
}

type fakeInsightStore struct {
	loaded   []string
	appended []model.PlaybackLogEntry
}

func (s *fakeInsightStore) Load(ctx context.Context, sitePattern string, top int) ([]string, error) {
	return s.loaded, nil
}

func (s *fakeInsightStore) Append(ctx context.Context, entry model.PlaybackLogEntry) error {
	s.appended = append(s.appended, entry)
	return nil
}

func testDefinition() *model.WorkflowDefinition {
	return &model.WorkflowDefinition{
		ID:             "wf1",
		Steps:          []model.WorkflowStep{{Order: 0, Description: "click submit"}},
		ExecutionOrder: []int{0},
		Confidence:     model.ConfidenceLow,
	}
}

func TestRunCompletesOnDoneAction(t *testing.T) {
	driver := &fakeDriver{}
	gateway := &scriptedGateway{actions: []model.Action{
		{Kind: model.ActionClick, ElementIndex: 0},
		{Kind: model.ActionDone},
	}}
	store := &fakeInsightStore{}

	r := New(driver, gateway, store, config.DefaultPlaybackConfig())
	entry, err := r.Run(context.Background(), testDefinition(), nil, "wf1", "example.com")
	require.NoError(t, err)

	assert.Equal(t, model.PlaybackCompleted, entry.Outcome)
	assert.Len(t, driver.executeCalls, 1)
	assert.Equal(t, "#submit", driver.executeCalls[0].Selector)
	require.Len(t, store.appended, 1)
	assert.Equal(t, entry.ID, store.appended[0].ID)
}

func TestRunFailsAfterMaxRetries(t *testing.T) {
	driver := &fakeDriver{executeResults: []ActionResult{
		{Success: false, Error: "boom"},
		{Success: false, Error: "boom"},
		{Success: false, Error: "boom"},
	}}
	gateway := &scriptedGateway{actions: []model.Action{
		{Kind: model.ActionClick, ElementIndex: 0},
		{Kind: model.ActionClick, ElementIndex: 0},
		{Kind: model.ActionClick, ElementIndex: 0},
	}}
	store := &fakeInsightStore{}

	cfg := config.DefaultPlaybackConfig()
	cfg.MaxRetries = 3
	r := New(driver, gateway, store, cfg)
	entry, err := r.Run(context.Background(), testDefinition(), nil, "wf1", "example.com")
	require.NoError(t, err)

	assert.Equal(t, model.PlaybackFailed, entry.Outcome)
	assert.Len(t, entry.ErrorReasons, 1)
	assert.Equal(t, "boom", entry.ErrorReasons[0])
}

func TestRunStopsOnFailAction(t *testing.T) {
	driver := &fakeDriver{}
	gateway := &scriptedGateway{actions: []model.Action{{Kind: model.ActionFail}}}
	store := &fakeInsightStore{}

	r := New(driver, gateway, store, config.DefaultPlaybackConfig())
	entry, err := r.Run(context.Background(), testDefinition(), nil, "wf1", "example.com")
	require.NoError(t, err)
	assert.Equal(t, model.PlaybackFailed, entry.Outcome)
}

func TestSelectModePrefersRecoveryAfterError(t *testing.T) {
	assert.Equal(t, ModeRecovery, selectMode("some error", 0, 3))
	assert.Equal(t, ModeGuided, selectMode("", 0, 3))
	assert.Equal(t, ModeGenerative, selectMode("", 3, 3))
}

func TestDispatchNavigateCallsDriverNavigate(t *testing.T) {
	driver := &fakeDriver{}
	r := New(driver, &scriptedGateway{}, &fakeInsightStore{}, config.DefaultPlaybackConfig())
	result, err := r.dispatch(context.Background(), model.Action{Kind: model.ActionNavigate, Value: "https://example.com/next"}, PageSnapshot{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"https://example.com/next"}, driver.navigateCalls)
}
