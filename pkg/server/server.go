// Package server exposes the process's internal ops surface: a health
// check and a Prometheus scrape endpoint, grounded on the shape of
// pkg/api/server.go and pkg/api/handler_health.go (HealthResponse/
// HealthCheck, per-component status map) rewired onto gin, the HTTP
// framework actually exercised elsewhere in the retrieved pack.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowscribe/workflow-core/pkg/config"
	_ "github.com/flowscribe/workflow-core/pkg/metrics" // registers the workflow_core_* collectors /metrics serves
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthCheck is the status of one checked component.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]HealthCheck `json:"checks"`
}

// Pinger is implemented by anything the health check should verify is
// reachable before reporting healthy. The Repository interface itself has
// no Ping; the concrete PostgresRepository and SQLiteRepository implement
// it over their connection, and main reaches it by type assertion.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the process's internal ops HTTP surface: /healthz and /metrics.
// It is never exposed publicly — the recording/replay façade that drives
// this module is an external collaborator (spec §1).
type Server struct {
	engine *gin.Engine
	http   *http.Server
	repo   Pinger
	gwOK   bool
}

// New builds a Server bound to cfg.Addr. repo may be nil if no Pinger is
// available; gatewayCredOK reports whether the LLM gateway has usable
// credentials, surfaced as a degraded (not unhealthy) check.
func New(cfg *config.ServerConfig, repo Pinger, gatewayCredOK bool) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		repo:   repo,
		gwOK:   gatewayCredOK,
		http:   &http.Server{Addr: cfg.Addr, Handler: engine},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.healthHandler)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// healthHandler reports this process's own components only — the upstream
// recording/replay façade and the LLM backend itself are excluded, so an
// external dependency's transient outage never triggers a restart here.
func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]HealthCheck{}
	status := statusHealthy

	if s.repo != nil {
		if err := s.repo.Ping(reqCtx); err != nil {
			status = statusUnhealthy
			checks["repository"] = HealthCheck{Status: statusUnhealthy, Message: err.Error()}
		} else {
			checks["repository"] = HealthCheck{Status: statusHealthy}
		}
	}

	if !s.gwOK {
		if status == statusHealthy {
			status = statusDegraded
		}
		checks["llm_gateway"] = HealthCheck{Status: statusDegraded, Message: "credential missing, heuristic fallback only"}
	} else {
		checks["llm_gateway"] = HealthCheck{Status: statusHealthy}
	}

	httpStatus := http.StatusOK
	if status == statusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, HealthResponse{Status: status, Checks: checks})
}

// Run starts serving until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
