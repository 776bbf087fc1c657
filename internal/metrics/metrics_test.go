package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {})

	before := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/sessions/{id}", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))
	after := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/sessions/{id}", "200"))
	if after-before != 1 {
		t.Fatalf("counter should grow by one, got %v", after-before)
	}
}

func TestMiddlewareRecordsExplicitStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/folders/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	before := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/folders/{id}", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/folders/x", nil))
	after := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/folders/{id}", "404"))
	if after-before != 1 {
		t.Fatalf("404 counter should grow by one, got %v", after-before)
	}
	if got := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/folders/{id}", "0")); got != 0 {
		t.Fatalf("status 0 must never be recorded, got %v", got)
	}
}

func TestHandlerExposesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)
	PoolSize.WithLabelValues("rc").Set(12)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `examsim_pool_questions{type="rc"} 12`) {
		t.Fatalf("pool gauge missing from output")
	}
}
