package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"daily-meal-notifier/internal/logging"
	"daily-meal-notifier/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// SchedulerStatus is the part of the scheduler the health check reads.
type SchedulerStatus interface {
	IsRunning() bool
	NextRun(id string) (time.Time, bool)
}

// Health is the /health response body.
type Health struct {
	Status  string            `json:"status"`
	NextRun *time.Time        `json:"next_run,omitempty"`
	System  metrics.SysHealth `json:"system"`
}

// Server exposes the health check and Prometheus metrics.
type Server struct {
	sched    SchedulerStatus
	jobID    string
	dataPath string
	gatherer prometheus.Gatherer
	log      *zerolog.Logger
	srv      *http.Server
}

// New creates a Server. jobID names the job whose next run is reported and
// dataPath is the directory measured for disk usage.
func New(sched SchedulerStatus, jobID, dataPath string, gatherer prometheus.Gatherer, logger *zerolog.Logger) *Server {
	s := &Server{
		sched:    sched,
		jobID:    jobID,
		dataPath: dataPath,
		gatherer: gatherer,
		log:      logging.Component(logger, "HTTPServer"),
	}
	s.srv = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := Health{Status: "ok", System: metrics.GetSysHealth(s.dataPath)}
	code := http.StatusOK
	if !s.sched.IsRunning() {
		h.Status = "scheduler_stopped"
		code = http.StatusServiceUnavailable
	} else if next, ok := s.sched.NextRun(s.jobID); ok {
		h.NextRun = &next
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(h); err != nil {
		s.log.Warn().Err(err).Msg("failed to write health response")
	}
}
