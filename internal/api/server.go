// Package api exposes the multiple-testing engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"genexpr/app"
	"genexpr/internal"
	"genexpr/internal/config"
	"genexpr/ports"
)

const baseURLV1 = "/api/v1"

// maxBodyBytes bounds request bodies; a 62 x 2000 matrix is well under 2 MiB.
const maxBodyBytes = 64 << 20

// Server serves the multitest and analysis endpoints
type Server struct {
	router    *chi.Mux
	multitest ports.MultiTestPort
	analysis  *app.AnalysisService
	defaults  config.AnalysisConfig
	metrics   *Metrics
	gatherer  prometheus.Gatherer
	logger    *internal.Logger
}

// NewServer wires routes, middleware and metrics. A nil registry gets a fresh
// one so tests and multiple servers never collide on registration.
func NewServer(multitest ports.MultiTestPort, defaults config.AnalysisConfig, registry *prometheus.Registry, logger *internal.Logger) *Server {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	s := &Server{
		router:    chi.NewRouter(),
		multitest: multitest,
		analysis:  app.NewAnalysisService(multitest, logger),
		defaults:  defaults,
		metrics:   NewMetrics(registry),
		gatherer:  registry,
		logger:    logger,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the collectors this server records into
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.logger.GetLevel() >= internal.LogLevelInfo {
		s.router.Use(middleware.Logger)
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.metrics.Middleware)
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.router.Route(baseURLV1, func(r chi.Router) {
		r.Post("/multitest", s.handleMultiTest)
		r.Post("/analyze", s.handleAnalyze)
	})
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[api] listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("[api] shutting down")
	return srv.Shutdown(shutdownCtx)
}
