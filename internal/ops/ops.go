// Package ops serves the operational HTTP endpoints: liveness,
// readiness and the Prometheus scrape target. It listens on its own
// port, separate from the telnet listener.
package ops

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hobbsbbs/hobbs/internal/logger"
	"github.com/hobbsbbs/hobbs/internal/metrics"
)

// ReadyFunc reports whether the process is ready to take sessions;
// typically a database ping.
type ReadyFunc func(ctx context.Context) error

// Server is the ops HTTP listener.
type Server struct {
	addr string
	http *http.Server
}

// New builds the ops server. ready may be nil, in which case readiness
// always succeeds.
func New(addr string, ready ReadyFunc) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				logger.Warn("readiness check failed", "error", err)
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	if reg := metrics.Registry(); reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	return &Server{
		addr: addr,
		http: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe blocks until the server stops. A clean Shutdown
// returns nil.
func (s *Server) ListenAndServe() error {
	logger.Info("ops endpoint listening", "address", s.addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
