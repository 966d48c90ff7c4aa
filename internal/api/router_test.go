package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hendripermana/uiwatch/internal/metrics"
)

func newTestRouter(counter *FakeCounter) *Router {
	h := NewHandlers(&FakeSubmitter{}, &FakeLister{}, &FakeSnapshotSource{
		Snapshot: &metrics.Snapshot{Component: "pipeline", Status: "healthy"},
	}, &FakeSnapshotReader{})
	var recorder Recorder
	if counter != nil {
		recorder = counter
	}
	return NewRouter(h, recorder)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("expected OK body, got %q", rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/events"},
		{http.MethodPost, "/api/v1/events/recent"},
		{http.MethodDelete, "/api/v1/metrics"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		router.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tt.method, tt.path, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/events", nil)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard CORS origin, got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp MetricsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Local == nil || resp.Local.Component != "pipeline" {
		t.Errorf("expected local snapshot in response, got %+v", resp.Local)
	}
}

func TestCountingMiddleware(t *testing.T) {
	counter := &FakeCounter{}
	router := newTestRouter(counter)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"kind":"ui_error","payload":{}}`))
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	if counter.Counts["http_POST"] != 1 {
		t.Errorf("expected 1 counted POST, got %d", counter.Counts["http_POST"])
	}

	// Bad request increments the error counter too.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{`))
	rec = httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	if counter.Counts["http_errors"] != 1 {
		t.Errorf("expected 1 counted error, got %d", counter.Counts["http_errors"])
	}
}

func TestMetricsEndpointNotCounted(t *testing.T) {
	counter := &FakeCounter{}
	router := newTestRouter(counter)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	if len(counter.Counts) != 0 {
		t.Errorf("metrics endpoint should not count itself, got %v", counter.Counts)
	}
}
