// Package status exposes a small HTTP surface for operating the bot:
// liveness, the stats counters, and recent execution attempts.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ailover379/solana-flash-loan-bot/internal/stats"
	"github.com/ailover379/solana-flash-loan-bot/internal/storage"
)

// Options configures a Server.
type Options struct {
	Addr     string
	Stats    *stats.Tracker
	Attempts storage.AttemptStore // optional; disables /attempts when nil
	Logger   *log.Logger
}

// Server serves the status endpoints.
type Server struct {
	httpServer *http.Server
	stats      *stats.Tracker
	attempts   storage.AttemptStore
	logger     *log.Logger
}

// NewServer creates a Server with all routes registered.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		stats:    opts.Stats,
		attempts: opts.Attempts,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /attempts", s.handleAttempts)

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. It blocks until the server errors or is shut down.
func (s *Server) Start() error {
	s.logger.Printf("status server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("status server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleHealthz responds with liveness.
// GET /healthz
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStats responds with the current stats snapshot.
// GET /stats
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Get())
}

// handleAttempts responds with attempts from the last hour, or from the
// ?since= Unix-millisecond timestamp when given.
// GET /attempts?since=1700000000000
func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	if s.attempts == nil {
		writeError(w, http.StatusNotFound, "attempt store not configured")
		return
	}

	since := time.Now().Add(-time.Hour).UnixMilli()
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since parameter")
			return
		}
		since = n
	}

	attempts, err := s.attempts.GetByTimeRange(r.Context(), since, time.Now().UnixMilli())
	if err != nil {
		s.logger.Printf("status: list attempts: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list attempts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"since":    since,
		"count":    len(attempts),
		"attempts": attempts,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
