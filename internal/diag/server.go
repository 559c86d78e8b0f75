// Package diag exposes the terminal's health and metrics endpoints on a
// local listener, separate from the register loop.
package diag

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oaramirez/grocerpos/pkg/config"
	"github.com/oaramirez/grocerpos/pkg/logger"
)

type Server struct {
	cfg  config.DiagnosticsConfig
	log  *logger.Logger
	http *http.Server
}

// NewServer wires the diagnostics router over the given Prometheus
// gatherer. The gatherer must be the registry the POS metrics were
// registered on.
func NewServer(cfg config.DiagnosticsConfig, gatherer prometheus.Gatherer, log *logger.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Server{
		cfg: cfg,
		log: log,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start blocks serving until Shutdown is called. A closed-server return
// is not treated as an error.
func (s *Server) Start(ctx context.Context) error {
	if s.log != nil {
		s.log.Info(s.log.WithField(ctx, "addr", s.cfg.Addr), "diagnostics listener starting")
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
