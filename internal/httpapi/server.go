// Package httpapi exposes the orchestrator, cache, and scheduler over a
// plain net/http.ServeMux: no web framework, explicit mux.HandleFunc
// registration, JSON responses written with encoding/json.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/inventory"
	"github.com/jasonpanggit/eol-agents/internal/orchestrator"
	"github.com/jasonpanggit/eol-agents/internal/scheduler"
	"github.com/jasonpanggit/eol-agents/internal/telemetry"
)

// Server wires the HTTP surface over an Orchestrator, Cache, and an
// optional Scheduler/inventory source for the bulk endpoints.
type Server struct {
	orchestrator *orchestrator.Orchestrator
	cache        *cache.Cache
	scheduler    *scheduler.Scheduler
	inventory    inventory.Source
	collector    *telemetry.Collector
	instruments  *telemetry.Instruments
	logger       applog.Logger
	fanOutLimit  int64

	mux     *http.ServeMux
	handler http.Handler
}

// Options configures optional dependencies a Server may or may not have
// wired (a deployment without an inventory source simply can't serve
// /batch, for instance).
type Options struct {
	Scheduler   *scheduler.Scheduler
	Inventory   inventory.Source
	Collector   *telemetry.Collector
	Instruments *telemetry.Instruments
	FanOutLimit int64
}

// New builds a Server and registers every route on its internal mux.
func New(o *orchestrator.Orchestrator, c *cache.Cache, logger applog.Logger, opts Options) *Server {
	if logger == nil {
		logger = applog.NoOp{}
	}
	if opts.FanOutLimit <= 0 {
		opts.FanOutLimit = 10
	}
	if opts.Collector == nil {
		opts.Collector = telemetry.NewCollector()
	}
	s := &Server{
		orchestrator: o,
		cache:        c,
		scheduler:    opts.Scheduler,
		inventory:    opts.Inventory,
		collector:    opts.Collector,
		instruments:  opts.Instruments,
		logger:       logger,
		fanOutLimit:  opts.FanOutLimit,
		mux:          http.NewServeMux(),
	}
	s.routes()
	s.handler = otelhttp.NewHandler(s.mux, "eol-agents.http",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/health" }),
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return s
}

// ServeHTTP implements http.Handler, delegating to the otelhttp-wrapped mux
// so every request (save health checks) produces a span.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/eol", s.handleLookup)
	s.mux.HandleFunc("/batch", s.handleBatch)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc("/cache/purge", s.handleCachePurge)
	s.mux.HandleFunc("/session/communications", s.handleCommunications)
	s.mux.HandleFunc("/session/clear", s.handleSessionClear)
}

// ListenAndServe starts an *http.Server bound to addr, applying
// read/write/idle timeouts to avoid Slowloris-style hangs on an
// otherwise unbounded net/http server.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
