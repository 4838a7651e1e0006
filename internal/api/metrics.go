package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"genexpr/domain/stats"
)

// Metrics holds the collectors the API records into.
type Metrics struct {
	Requests        *prometheus.CounterVec
	ComputeDuration *prometheus.HistogramVec
	FeaturesTested  prometheus.Counter
	GenesRejected   *prometheus.CounterVec
}

// NewMetrics registers all collectors with registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genexpr_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		ComputeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "genexpr_compute_duration_seconds",
				Help:    "Time spent testing and correcting one request",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			},
			[]string{"route"},
		),
		FeaturesTested: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "genexpr_features_tested_total",
				Help: "Total number of genes run through a two-sample test",
			},
		),
		GenesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genexpr_genes_rejected_total",
				Help: "Total number of genes rejected at the requested alpha, by correction method",
			},
			[]string{"method"},
		),
	}
}

// ObserveCompute records one finished computation.
func (m *Metrics) ObserveCompute(route string, elapsed time.Duration, features int) {
	m.ComputeDuration.WithLabelValues(route).Observe(elapsed.Seconds())
	m.FeaturesTested.Add(float64(features))
}

// ObserveRejections records per-method rejection counts.
func (m *Metrics) ObserveRejections(summary []stats.RejectionSummary) {
	for _, r := range summary {
		m.GenesRejected.WithLabelValues(string(r.Method)).Add(float64(r.Rejected))
	}
}

// Middleware counts requests by matched route pattern and status code.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
