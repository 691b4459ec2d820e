// Command meetscribe runs the transcript service: audio ingestion through a
// speech-recognition provider, transcript retrieval, speaker renaming, and
// the correction preview/apply flow.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsenselab/meetscribe/api"
	"github.com/skillsenselab/meetscribe/asr"
	"github.com/skillsenselab/meetscribe/asr/assemblyai"
	"github.com/skillsenselab/meetscribe/config"
	"github.com/skillsenselab/meetscribe/correction"
	"github.com/skillsenselab/meetscribe/ingest"
	"github.com/skillsenselab/meetscribe/llm"
	"github.com/skillsenselab/meetscribe/llm/ollama"
	"github.com/skillsenselab/meetscribe/logger"
	"github.com/skillsenselab/meetscribe/server"
	"github.com/skillsenselab/meetscribe/server/endpoint"
	"github.com/skillsenselab/meetscribe/store"
	"github.com/skillsenselab/meetscribe/store/sqlite"
	"github.com/skillsenselab/meetscribe/util"
	"github.com/skillsenselab/meetscribe/version"
)

const serviceName = "meetscribe"

const gracefulTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "meetscribe: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Logging, serviceName)
	log := logger.GetGlobalLogger()
	log.Info("Starting service", map[string]interface{}{
		"version":     version.GetShortVersion(),
		"environment": cfg.Environment,
	})

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	recognizer := buildRecognizer(cfg, log)
	rewriter := buildRewriter(cfg, log)

	ingestSvc := ingest.NewService(st, recognizer,
		ingest.WithPollInterval(cfg.ASR.PollInterval),
		ingest.WithPollTimeout(cfg.ASR.PollTimeout),
	)
	correctionSvc := correction.NewService(st, rewriter,
		correction.WithRewriteTimeout(cfg.Rewrite.Timeout),
	)

	srv := server.New(cfg.Server, log)
	srv.RegisterDefaultEndpoints(serviceName, healthChecker(st, recognizer, rewriter))
	api.NewHandler(ingestSvc, correctionSvc, st).Register(srv.GinEngine())
	srv.ApplyMiddleware()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	log.Info("Service ready", map[string]interface{}{"addr": srv.Addr()})

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}
	log.Info("Shutdown complete")
	return nil
}

func openStore(cfg *config.AppConfig) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		return store.NewMemoryStore(), func() {}, nil
	case "sqlite":
		s, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func buildRecognizer(cfg *config.AppConfig, log *logger.Logger) asr.Provider {
	registry := asr.NewRegistry()
	registry.RegisterFactory(assemblyai.ProviderName, assemblyai.Factory())

	p, err := registry.Create(cfg.ASR.Provider, map[string]any{
		"base_url": cfg.ASR.BaseURL,
		"api_key":  cfg.ASR.APIKey,
		"timeout":  cfg.ASR.Timeout,
	})
	if err != nil {
		log.Warn("Speech recognition provider unavailable", map[string]interface{}{
			"provider": cfg.ASR.Provider,
			"error":    err.Error(),
		})
		return nil
	}
	log.Info("Speech recognition provider configured", map[string]interface{}{
		"provider": cfg.ASR.Provider,
		"api_key":  util.MaskSecret(cfg.ASR.APIKey, 3),
	})
	return p
}

func buildRewriter(cfg *config.AppConfig, log *logger.Logger) llm.Provider {
	registry := llm.NewRegistry()
	registry.RegisterFactory(ollama.ProviderName, ollama.Factory())

	p, err := registry.Create(cfg.Rewrite.Provider, map[string]any{
		"base_url":    cfg.Rewrite.BaseURL,
		"model":       cfg.Rewrite.Model,
		"temperature": cfg.Rewrite.Temperature,
		"timeout":     cfg.Rewrite.Timeout,
	})
	if err != nil {
		log.Warn("Rewrite provider unavailable", map[string]interface{}{
			"provider": cfg.Rewrite.Provider,
			"error":    err.Error(),
		})
		return nil
	}
	return p
}

// healthChecker reports the store and provider status for /health.
func healthChecker(st store.Store, recognizer asr.Provider, rewriter llm.Provider) endpoint.HealthChecker {
	return func(ctx context.Context) []endpoint.Check {
		checks := []endpoint.Check{{Name: "store", Status: endpoint.StatusHealthy}}

		if recognizer != nil {
			check := endpoint.Check{Name: "asr:" + recognizer.Name(), Status: endpoint.StatusHealthy}
			if !recognizer.IsAvailable(ctx) {
				check.Status = endpoint.StatusDegraded
				check.Error = "provider not reachable"
			}
			checks = append(checks, check)
		}
		if rewriter != nil {
			check := endpoint.Check{Name: "llm:" + rewriter.Name(), Status: endpoint.StatusHealthy}
			if !rewriter.IsAvailable(ctx) {
				check.Status = endpoint.StatusDegraded
				check.Error = "provider not reachable"
			}
			checks = append(checks, check)
		}
		return checks
	}
}
