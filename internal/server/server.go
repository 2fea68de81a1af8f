// Package server implements the HTTP API behind the Esperanto viewer
package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lukketsvane/esperanto/internal/logger"
	"github.com/lukketsvane/esperanto/internal/metrics"
	"github.com/lukketsvane/esperanto/pkg/dataset"
)

// Server serves the dashboard API over a loaded dataset store
type Server struct {
	store   *dataset.Store
	log     *logger.Logger
	metrics *metrics.Metrics
	http    *http.Server
}

// New creates an HTTP server exposing the viewer API, health and
// readiness checks, Prometheus metrics, and pprof endpoints.
func New(addr string, store *dataset.Store, log *logger.Logger, m *metrics.Metrics) *Server {
	s := &Server{
		store:   store,
		log:     log,
		metrics: m,
	}

	mux := http.NewServeMux()

	// Viewer API
	mux.HandleFunc("GET /api/overview", s.handleOverview)
	mux.HandleFunc("GET /api/conversations", s.handleConversations)
	mux.HandleFunc("GET /api/conversations/{id}", s.handleConversation)
	mux.HandleFunc("GET /api/participants", s.handleParticipants)
	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /api/filters", s.handleFilters)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"esperanto"}`))
	})

	// Readiness: ready once the dataset load succeeded
	mux.HandleFunc("/ready", s.handleReady)

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/debug/pprof/allocs", pprof.Handler("allocs"))

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.withObservability(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the full middleware-wrapped handler
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start starts the HTTP server and blocks until shutdown
func (s *Server) Start() error {
	s.log.Info("Starting viewer server").
		Str("addr", s.http.Addr).
		Msg("API endpoints available")

	s.log.Info("Endpoints:").
		Str("api", fmt.Sprintf("http://%s/api/overview", s.http.Addr)).
		Str("metrics", fmt.Sprintf("http://%s/metrics", s.http.Addr)).
		Str("health", fmt.Sprintf("http://%s/health", s.http.Addr)).
		Send()

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("viewer server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.LogServerShutdown()
	return s.http.Shutdown(ctx)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store.Phase() != dataset.PhaseReady {
		writeError(w, http.StatusServiceUnavailable, dataset.RemediationMessage)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ready",
		"records": s.store.Len(),
	})
}
