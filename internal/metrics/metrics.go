package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "route"},
	)

	ExamsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "examsim_exams_generated_total",
			Help: "Exams generated, by kind and mode",
		},
		[]string{"kind", "mode"},
	)

	QuotaShortfalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "examsim_quota_shortfall_questions_total",
			Help: "Questions missing from sectioned exams because a pool ran dry",
		},
		[]string{"type"},
	)

	SessionsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "examsim_sessions_submitted_total",
			Help: "Sessions finished, by final status",
		},
		[]string{"status"},
	)

	PoolSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "examsim_pool_questions",
			Help: "Questions loaded per pool",
		},
		[]string{"type"},
	)
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(RequestCounter, RequestDuration, ExamsGenerated, QuotaShortfalls, SessionsSubmitted, PoolSize)
}

// Middleware records request counts and latency keyed by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
