package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	monitor *Monitor
	server  *http.Server
	logger  *slog.Logger
}

// NewServer creates a new health server.
func NewServer(monitor *Monitor, port int) *Server {
	s := &Server{
		monitor: monitor,
		logger:  slog.Default().With("component", "health"),
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router; exposed for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/health/detailed", s.handleDetailed)
	r.Get("/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server. It returns nil after Stop.
func (s *Server) Start() error {
	s.logger.Info("Health server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())

	code := http.StatusOK
	if report.SystemStatus == StatusCritical {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, map[string]string{"status": string(report.SystemStatus)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.monitor.CheckHealth(r.Context()))
}

// handleStatus bypasses the report cache.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.monitor.source.Stats())
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}
