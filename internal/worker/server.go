// Package worker serves proof-search tasks over HTTP for the pool executor.
// One worker process wraps one prover and runs a bounded number of searches
// concurrently.
package worker

import (
	"encoding/json"
	"net/http"

	"github.com/aletheia-lab/aletheia/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const defaultMaxConcurrentTasks = 4

// Server handles task submissions against a prover.
type Server struct {
	Router *chi.Mux
	prover domain.Prover
	sem    chan struct{}
	logger *zap.Logger
}

func NewServer(prover domain.Prover, maxConcurrent int, logger *zap.Logger) *Server {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentTasks
	}
	s := &Server{
		prover: prover,
		sem:    make(chan struct{}, maxConcurrent),
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logging(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/v1/tasks", s.handleTask)

	s.Router = r
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTask runs one proof search synchronously and returns its result. A
// search that cannot execute at all is still a 200: the error is reported in
// the attempt's error field so the orchestrator's collector can drop it.
// Transport-level problems (bad JSON) get a 4xx.
func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	var task domain.ProofTask
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid task payload: " + err.Error()})
		return
	}
	if task.Conjecture == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "task is missing a conjecture"})
		return
	}

	select {
	case s.sem <- struct{}{}:
	case <-r.Context().Done():
		return
	}
	defer func() { <-s.sem }()

	s.logger.Info("running proof search",
		zap.String("task_id", task.ID.String()),
		zap.String("conjecture", task.Conjecture),
		zap.String("request_id", RequestIDFromContext(r.Context())))

	attempt, err := s.prover.TryProve(r.Context(), task)
	if err != nil {
		s.logger.Error("proof search could not execute",
			zap.String("task_id", task.ID.String()),
			zap.Error(err))
		attempt = domain.ProofAttempt{Problem: task.Conjecture, Error: err.Error()}
	}

	writeJSON(w, http.StatusOK, attempt)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
