// Package server provides the documented HTTP surface (spec.md §6) as a
// thin adapter over internal/pipeline, internal/indexer, and
// internal/retriever — handlers only, routing and JSON envelopes, no
// business logic. Grounded on the teacher's internal/auth/antigravity/server.go
// (stdlib net/http.Server with a ServeMux, started in a goroutine and shut
// down gracefully on the caller's signal) generalized from a one-shot OAuth
// callback listener to a long-lived multi-route API surface.
package server

import (
	"context"
	"net/http"
	"time"

	"codegraph/internal/config"
	"codegraph/internal/indexer"
	"codegraph/internal/logging"
	"codegraph/internal/parser"
	"codegraph/internal/retriever"
	"codegraph/internal/store"
)

// Server wires the core engine's pipeline, index orchestrator, and retriever
// behind net/http handlers.
type Server struct {
	cfg       *config.Config
	store     store.Store
	registry  *parser.Registry
	orch      *indexer.Orchestrator
	retriever *retriever.Retriever

	httpServer *http.Server
}

// New builds a Server. retr may be nil until at least one strategy adapter
// is registered with orch; /search then answers 503 with a failed envelope
// rather than panicking.
func New(cfg *config.Config, st store.Store, registry *parser.Registry, orch *indexer.Orchestrator, retr *retriever.Retriever) *Server {
	return &Server{cfg: cfg, store: st, registry: registry, orch: orch, retriever: retr}
}

// Router builds the documented route table (spec.md §6).
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /index/repo", s.handleIndexRepo)
	mux.HandleFunc("POST /index/incremental", s.handleIndexIncremental)
	mux.HandleFunc("DELETE /index/repo", s.handleDeleteRepo)
	mux.HandleFunc("GET /index/status/{repo_id}", s.handleIndexStatus)

	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /search/{strategy}", s.handleSearchStrategy)

	mux.HandleFunc("POST /rfc/execute", s.handleRFCUnimplemented)
	mux.HandleFunc("POST /rfc/validate", s.handleRFCUnimplemented)
	mux.HandleFunc("POST /rfc/plan", s.handleRFCUnimplemented)
	mux.HandleFunc("GET /rfc/replay/{id}", s.handleRFCUnimplemented)

	return mux
}

// Start runs the HTTP server until ctx is canceled, then shuts it down
// gracefully (teacher's StartCallbackServer select{ case <-ctx.Done() }
// pattern, generalized to a server with no single-request completion
// signal of its own).
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Server.ListenAddr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.ServerDebug("server: listening on %s", s.cfg.Server.ListenAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
