// Package status serves the kiosk's health and metrics endpoints.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/existflow/memberbooth/internal/logger"
)

// Health is the /healthz payload.
type Health struct {
	State   string `json:"state"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// StateFunc reports the kiosk's current state.
type StateFunc func() string

// NewRouter wires /healthz and /metrics.
func NewRouter(reg prometheus.Gatherer, state StateFunc, version string) http.Handler {
	started := time.Now()
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Health{
			State:   state(),
			Version: version,
			Uptime:  time.Since(started).Truncate(time.Second).String(),
		})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return r
}

// Server runs the status router in the background.
type Server struct {
	srv *http.Server
}

// Start listens on addr. An empty addr disables the server.
func Start(addr string, h http.Handler) *Server {
	if addr == "" {
		return nil
	}
	s := &Server{srv: &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}}
	go func() {
		logger.Info("Status server listening", logger.F("addr", addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server failed", logger.Err(err))
		}
	}()
	return s
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
