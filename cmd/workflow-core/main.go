// Command workflow-core boots the analysis/playback core as a library host:
// it wires configuration, the repository, the LLM gateway, and the
// pipeline/playback packages, then serves the internal ops surface
// (health + metrics). The recording/replay HTTP façade that actually
// drives Pipeline.Analyze and playback.Runner.Run is an external
// collaborator (spec §1) and is not part of this binary.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/flowscribe/workflow-core/pkg/config"
	"github.com/flowscribe/workflow-core/pkg/llmgateway"
	"github.com/flowscribe/workflow-core/pkg/masking"
	"github.com/flowscribe/workflow-core/pkg/pipeline"
	"github.com/flowscribe/workflow-core/pkg/repository"
	"github.com/flowscribe/workflow-core/pkg/server"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	repo, err := repository.Open(ctx, cfg.Repository)
	if err != nil {
		log.Fatalf("failed to open repository (driver=%s): %v", cfg.Repository.Driver, err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			slog.Warn("error closing repository", "error", err)
		}
	}()
	slog.Info("repository ready", "driver", cfg.Repository.Driver)

	masker := masking.NewService()
	gateway, err := llmgateway.New(cfg.LLM, masker, nil)
	credOK := true
	if err != nil {
		slog.Warn("llm gateway running without credentials, every stage falls back to its heuristic path", "error", err)
		credOK = false
		gateway = nil
	}

	// analysisPipeline and insights are the library surface an external
	// recording/replay caller imports directly; this binary only proves
	// they construct cleanly and serves the ops endpoints.
	analysisPipeline := pipeline.New(gateway, masker)
	insights := repository.NewInsightStore(repo)
	_ = analysisPipeline
	_ = insights

	pingable, _ := repo.(server.Pinger)
	ops := server.New(cfg.Server, pingable, credOK)

	slog.Info("starting ops server", "addr", cfg.Server.Addr)
	if err := ops.Run(ctx); err != nil {
		log.Fatalf("ops server stopped: %v", err)
	}
}
