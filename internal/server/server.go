package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/paretoswarm/internal/problem"
	"github.com/cwbudde/paretoswarm/internal/store"
)

// maxConfigBytes bounds the size of a submitted run configuration.
const maxConfigBytes = 1 << 20

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	runStore   store.Store
	addr       string
	server     *http.Server

	// ctx is the parent of every worker context; cancel stops all workers
	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
}

// NewServer creates a new HTTP server. Finished runs are saved to runStore when
// it is not nil.
func NewServer(addr string, runStore store.Store) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		jobManager: NewJobManager(),
		runStore:   runStore,
		addr:       addr,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Handler returns the routed handler wrapped in the server's middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register UI routes
	mux.HandleFunc("/", s.handleIndex)

	// Register API routes
	mux.HandleFunc("/api/v1/problems", s.handleProblems)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/runs/", s.handleRunsWithID)

	// Wrap with middleware
	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown cancels all active runs, waits for their workers to save them and
// gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server", "active_runs", len(s.jobManager.GetRunningJobs()))
	s.jobManager.CancelAll()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("workers still running: %w", ctx.Err())
	}
	s.jobManager.broadcaster.CloseAll()

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleProblems handles GET /api/v1/problems
func (s *Server) handleProblems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, problem.Names())
}

// handleRuns handles /api/v1/runs
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleRunsWithID handles /api/v1/runs/:id/*
func (s *Server) handleRunsWithID(w http.ResponseWriter, r *http.Request) {
	// Parse run ID from path
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "Run ID required")
		return
	}

	runID := parts[0]

	// Route based on subpath
	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.handleCancelRun(w, r, runID)
	case r.Method != http.MethodGet:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	case len(parts) == 1 || parts[1] == "status":
		s.handleGetRunStatus(w, r, runID)
	case parts[1] == "front":
		s.handleGetFront(w, r, runID)
	case parts[1] == "stream":
		s.handleJobStream(w, r, runID)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// handleCreateRun handles POST /api/v1/runs. The body is a RunConfig in JSON or
// YAML; omitted fields take the defaults for the named problem.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxConfigBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read body: %v", err))
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}

	config, err := store.ParseRunConfig(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := config.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Create job
	job := s.jobManager.CreateJob(*config)

	// Start worker in background
	ctx, cancel := context.WithCancel(s.ctx)
	s.jobManager.setCancel(job.ID, cancel)
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		defer cancel()
		runJob(ctx, s.jobManager, s.runStore, job.ID)
	}()

	writeJSON(w, http.StatusCreated, job)
}

// handleListRuns handles GET /api/v1/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// handleGetRunStatus handles GET /api/v1/runs/:id. Runs that are no longer in
// memory are answered from the store.
func (s *Server) handleGetRunStatus(w http.ResponseWriter, r *http.Request, runID string) {
	job, exists := s.jobManager.GetJob(runID)
	if exists {
		writeJSON(w, http.StatusOK, statusResponse{Job: job, Elapsed: job.Elapsed().Seconds()})
		return
	}

	result, ok := s.loadStored(w, runID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result.ToInfo())
}

// handleGetFront handles GET /api/v1/runs/:id/front
func (s *Server) handleGetFront(w http.ResponseWriter, r *http.Request, runID string) {
	job, exists := s.jobManager.GetJob(runID)
	if !exists {
		result, ok := s.loadStored(w, runID)
		if !ok {
			return
		}
		state := StateCompleted
		if result.Canceled {
			state = StateCancelled
		}
		writeJSON(w, http.StatusOK, frontResponse{
			ID:          result.ID,
			State:       state,
			Problem:     result.Config.Problem,
			Hypervolume: result.Hypervolume,
			Front:       result.Front,
		})
		return
	}

	if job.State != StateCompleted && job.State != StateCancelled {
		writeError(w, http.StatusConflict, fmt.Sprintf("Run is %s, no front available", job.State))
		return
	}

	writeJSON(w, http.StatusOK, frontResponse{
		ID:          job.ID,
		State:       job.State,
		Problem:     job.Config.Problem,
		Hypervolume: job.Hypervolume,
		Front:       job.Front(),
	})
}

// handleCancelRun handles DELETE /api/v1/runs/:id
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request, runID string) {
	job, exists := s.jobManager.GetJob(runID)
	if !exists {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err := s.jobManager.CancelJob(runID); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	slog.Info("Cancellation requested", "job_id", runID)
	writeJSON(w, http.StatusAccepted, job)
}

// loadStored answers 404 or 500 itself and reports whether a result was found.
func (s *Server) loadStored(w http.ResponseWriter, runID string) (*store.RunResult, bool) {
	if s.runStore == nil {
		writeError(w, http.StatusNotFound, "Run not found")
		return nil, false
	}
	result, err := s.runStore.LoadRun(runID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Run not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return result, true
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
