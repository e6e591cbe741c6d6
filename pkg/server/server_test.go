package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowscribe/workflow-core/pkg/config"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error {
	return f.err
}

func TestHealthHandlerAllHealthy(t *testing.T) {
	s := New(config.DefaultServerConfig(), fakePinger{}, true)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, statusHealthy, resp.Status)
	assert.Equal(t, statusHealthy, resp.Checks["repository"].Status)
	assert.Equal(t, statusHealthy, resp.Checks["llm_gateway"].Status)
}

func TestHealthHandlerDegradedWithoutLLMCredential(t *testing.T) {
	s := New(config.DefaultServerConfig(), fakePinger{}, false)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, "degraded is still a 200")

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, statusDegraded, resp.Status)
	assert.Equal(t, statusDegraded, resp.Checks["llm_gateway"].Status)
}

func TestHealthHandlerUnhealthyOnRepositoryPingFailure(t *testing.T) {
	s := New(config.DefaultServerConfig(), fakePinger{err: errors.New("connection refused")}, true)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, statusUnhealthy, resp.Status)
	assert.Equal(t, statusUnhealthy, resp.Checks["repository"].Status)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	s := New(config.DefaultServerConfig(), fakePinger{}, true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "workflow_core_")
}
