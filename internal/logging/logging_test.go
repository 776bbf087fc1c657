package logging

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	if _, err := New("loud", ""); err == nil {
		t.Fatalf("bad level should fail")
	}
	log, err := New("debug", filepath.Join(t.TempDir(), "app.log"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Debug("hello")
	_ = log.Sync()
}

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Middleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("want 1 log line, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["status"]; got != int64(http.StatusTeapot) {
		t.Fatalf("status field: %v", got)
	}
}
