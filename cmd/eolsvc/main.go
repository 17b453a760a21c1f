// Command eolsvc starts the end-of-life intelligence HTTP service: it
// wires configuration, logging, the two-tier cache, every vendor agent,
// the generic web-scrape fallback, the orchestrator, the cache-refresh
// scheduler, and the OpenTelemetry metrics and tracing pipelines, then
// serves until an interrupt or terminate signal arrives.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/agents/apache"
	"github.com/jasonpanggit/eol-agents/internal/agents/endoflife"
	"github.com/jasonpanggit/eol-agents/internal/agents/microsoft"
	"github.com/jasonpanggit/eol-agents/internal/agents/nodejs"
	"github.com/jasonpanggit/eol-agents/internal/agents/oracle"
	"github.com/jasonpanggit/eol-agents/internal/agents/php"
	"github.com/jasonpanggit/eol-agents/internal/agents/postgresql"
	"github.com/jasonpanggit/eol-agents/internal/agents/python"
	"github.com/jasonpanggit/eol-agents/internal/agents/redhat"
	"github.com/jasonpanggit/eol-agents/internal/agents/ubuntu"
	"github.com/jasonpanggit/eol-agents/internal/agents/vmware"
	"github.com/jasonpanggit/eol-agents/internal/ai"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/config"
	"github.com/jasonpanggit/eol-agents/internal/fallback"
	"github.com/jasonpanggit/eol-agents/internal/httpapi"
	"github.com/jasonpanggit/eol-agents/internal/orchestrator"
	"github.com/jasonpanggit/eol-agents/internal/scheduler"
	"github.com/jasonpanggit/eol-agents/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := newLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := newStorageProvider(cfg, logger)
	memCache := cache.New(store, cfg.CacheTTL, logger)

	extractor := newExtractor(cfg, logger)
	browserAgent := fallback.New(memCache, logger, extractor, cfg.BrowserNavTimeout, cfg.BrowserHeadless)
	defer browserAgent.Close()

	ubuntuAgent := ubuntu.New(memCache, logger, cfg.HTTPTimeout)

	vendorRoutes := []agents.Agent{
		apache.New(memCache, logger, cfg.HTTPTimeout),
		microsoft.New(memCache, logger, cfg.HTTPTimeout),
		redhat.New(memCache, logger, cfg.HTTPTimeout),
		ubuntuAgent,
		vmware.New(memCache, logger, cfg.HTTPTimeout),
		oracle.New(memCache, logger, cfg.HTTPTimeout),
		postgresql.New(memCache, logger, cfg.HTTPTimeout),
		php.New(memCache, logger, cfg.HTTPTimeout),
		python.New(memCache, logger, cfg.HTTPTimeout),
		nodejs.New(memCache, logger, cfg.HTTPTimeout),
		endoflife.New(memCache, logger, cfg.EndOfLifeAPIBaseURL, cfg.HTTPTimeout),
	}
	osSpecialists := []agents.Agent{
		microsoft.New(memCache, logger, cfg.HTTPTimeout),
		redhat.New(memCache, logger, cfg.HTTPTimeout),
		ubuntuAgent,
		vmware.New(memCache, logger, cfg.HTTPTimeout),
	}

	o := orchestrator.New(vendorRoutes, osSpecialists, browserAgent, logger)

	sched := scheduler.New([]scheduler.Refresher{ubuntuAgent}, logger, 2*time.Minute)
	if _, err := sched.Schedule(ctx, "0 3 * * *"); err != nil {
		logger.Warn("failed to register scheduled refresh", map[string]interface{}{"error": err.Error()})
	} else {
		sched.Start()
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = sched.Stop(stopCtx)
	}()

	pipeline, err := telemetry.NewPipeline(ctx, cfg.ServiceName)
	if err != nil {
		logger.Warn("failed to start metrics pipeline, continuing without it", map[string]interface{}{"error": err.Error()})
	}
	defer func() {
		if pipeline != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = pipeline.Shutdown(shutdownCtx)
		}
	}()

	tracePipeline, err := telemetry.NewTracePipeline(ctx, cfg.ServiceName, cfg.OTLPTraceEndpoint)
	if err != nil {
		logger.Warn("failed to start trace pipeline, continuing without it", map[string]interface{}{"error": err.Error()})
	}
	defer func() {
		if tracePipeline != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracePipeline.Shutdown(shutdownCtx)
		}
	}()

	server := httpapi.New(o, memCache, logger, httpapi.Options{
		Scheduler:   sched,
		Collector:   telemetry.NewCollector(),
		Instruments: telemetry.NewInstruments(cfg.ServiceName),
		FanOutLimit: cfg.FanOutConcurrency,
	})

	logger.Info("starting eol-agents service", map[string]interface{}{"port": fmt.Sprint(cfg.Port)})
	return server.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Port), 15*time.Second)
}

func newLogger(cfg *config.Config, out io.Writer) *applog.Production {
	format := applog.FormatText
	if cfg.LogFormat == "json" {
		format = applog.FormatJSON
	}
	return applog.New(cfg.ServiceName, cfg.LogLevel, format, out)
}

func newStorageProvider(cfg *config.Config, logger applog.Logger) cache.StorageProvider {
	if cfg.RedisURL == "" {
		return nil
	}
	store, err := cache.NewRedisStore(cache.RedisStoreOptions{
		URL:       cfg.RedisURL,
		DB:        -1,
		Namespace: cfg.RedisNamespace,
		Logger:    logger,
	})
	if err != nil {
		logger.Warn("redis unavailable, running cache in memory-only mode", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return store
}

func newExtractor(cfg *config.Config, logger applog.Logger) ai.DateExtractor {
	if !cfg.LLMExtractionEnabled || cfg.LLMEndpoint == "" {
		return ai.NoOpExtractor{}
	}
	apiKey := os.Getenv("EOL_LLM_API_KEY")
	return ai.NewHTTPExtractor(cfg.LLMEndpoint, cfg.LLMDeployment, cfg.LLMAPIVersion, apiKey, cfg.HTTPTimeout, logger)
}
