package authdetector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowscribe/workflow-core/pkg/model"
)

func TestDetectBearerScheme(t *testing.T) {
	sessions := []model.Session{
		{ID: "s1", NetEvents: []model.NetworkEvent{{RequestHeaders: map[string]string{"Authorization": "Bearer abc123"}}}},
		{ID: "s2", NetEvents: []model.NetworkEvent{{RequestHeaders: map[string]string{"Authorization": "Bearer def456"}}}},
	}

	d := New(nil)
	pattern, err := d.Detect(context.Background(), sessions)
	require.NoError(t, err)
	assert.Equal(t, model.AuthSchemeBearer, pattern.Scheme)
	require.Len(t, pattern.Fields, 1)
	assert.Equal(t, "Authorization", pattern.Fields[0].Name)
}

func TestDetectAPIKeyHeaderScheme(t *testing.T) {
	sessions := []model.Session{
		{ID: "s1", NetEvents: []model.NetworkEvent{{RequestHeaders: map[string]string{"X-Api-Key": "k1"}}}},
		{ID: "s2", NetEvents: []model.NetworkEvent{{RequestHeaders: map[string]string{"X-Api-Key": "k2"}}}},
	}

	d := New(nil)
	pattern, err := d.Detect(context.Background(), sessions)
	require.NoError(t, err)
	assert.Equal(t, model.AuthSchemeAPIKey, pattern.Scheme)
	assert.Equal(t, model.AuthLocationHeader, pattern.Fields[0].Location)
}

func TestDetectSessionCookieScheme(t *testing.T) {
	sessions := []model.Session{
		{ID: "s1", NetEvents: []model.NetworkEvent{{RequestHeaders: map[string]string{"Cookie": "sessionid=aaa; theme=dark"}}}},
		{ID: "s2", NetEvents: []model.NetworkEvent{{RequestHeaders: map[string]string{"Cookie": "sessionid=bbb; theme=light"}}}},
	}

	d := New(nil)
	pattern, err := d.Detect(context.Background(), sessions)
	require.NoError(t, err)
	assert.Equal(t, model.AuthSchemeCookie, pattern.Scheme)
	assert.Equal(t, "sessionid", pattern.Fields[0].Name)
}

func TestDetectCustomSchemeWhenNothingConsistent(t *testing.T) {
	sessions := []model.Session{
		{ID: "s1", NetEvents: []model.NetworkEvent{{RequestHeaders: map[string]string{"X-Foo": "bar"}}}},
		{ID: "s2", NetEvents: []model.NetworkEvent{{}}},
	}

	d := New(nil)
	pattern, err := d.Detect(context.Background(), sessions)
	require.NoError(t, err)
	assert.Equal(t, model.AuthSchemeCustom, pattern.Scheme)
}

func TestDetectCSRFCompanion(t *testing.T) {
	sessions := []model.Session{
		{ID: "s1", NetEvents: []model.NetworkEvent{{RequestHeaders: map[string]string{"Authorization": "Bearer a", "X-CSRF-Token": "t1"}}}},
		{ID: "s2", NetEvents: []model.NetworkEvent{{RequestHeaders: map[string]string{"Authorization": "Bearer b", "X-CSRF-Token": "t2"}}}},
	}

	d := New(nil)
	pattern, err := d.Detect(context.Background(), sessions)
	require.NoError(t, err)
	assert.Equal(t, model.AuthSchemeBearer, pattern.Scheme)
	require.Len(t, pattern.Fields, 2)
	var hasCSRF bool
	for _, f := range pattern.Fields {
		if f.IsCSRF {
			hasCSRF = true
		}
	}
	assert.True(t, hasCSRF)
}

// TestDetectAPIKeyHeaderChoiceIsDeterministic guards spec §8's "Property —
// idempotence under heuristic fallbacks": when two candidate API-key header
// names are both consistently present, repeated runs must pick the same
// one rather than whichever Go's randomized map order surfaces first.
func TestDetectAPIKeyHeaderChoiceIsDeterministic(t *testing.T) {
	sessions := []model.Session{
		{ID: "s1", NetEvents: []model.NetworkEvent{{RequestHeaders: map[string]string{"X-Api-Key": "k1", "Api-Key": "k1b"}}}},
		{ID: "s2", NetEvents: []model.NetworkEvent{{RequestHeaders: map[string]string{"X-Api-Key": "k2", "Api-Key": "k2b"}}}},
	}

	d := New(nil)
	first, err := d.Detect(context.Background(), sessions)
	require.NoError(t, err)
	require.Len(t, first.Fields, 1)

	for i := 0; i < 20; i++ {
		pattern, err := d.Detect(context.Background(), sessions)
		require.NoError(t, err)
		require.Len(t, pattern.Fields, 1)
		assert.Equal(t, first.Fields[0].Name, pattern.Fields[0].Name)
	}
}

func TestDetectNoCredentialValuesStored(t *testing.T) {
	sessions := []model.Session{
		{ID: "s1", NetEvents: []model.NetworkEvent{{RequestHeaders: map[string]string{"Authorization": "Bearer super-secret"}}}},
		{ID: "s2", NetEvents: []model.NetworkEvent{{RequestHeaders: map[string]string{"Authorization": "Bearer other-secret"}}}},
	}

	d := New(nil)
	pattern, err := d.Detect(context.Background(), sessions)
	require.NoError(t, err)
	for _, f := range pattern.Fields {
		assert.NotContains(t, f.Name, "secret")
	}
}
