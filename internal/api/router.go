package api

import (
	"net/http"
	"time"
)

// Router wraps the HTTP mux and provides route configuration.
type Router struct {
	mux      *http.ServeMux
	handlers *Handlers
	recorder Recorder
}

// Recorder counts HTTP outcomes. Satisfied by the metrics collector.
type Recorder interface {
	IncrementCustom(name string)
}

// NewRouter creates a router with all routes configured. The recorder may be
// nil.
func NewRouter(h *Handlers, recorder Recorder) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		handlers: h,
		recorder: recorder,
	}
	r.setupRoutes()
	return r
}

// setupRoutes configures all HTTP routes for the API.
func (r *Router) setupRoutes() {
	r.mux.HandleFunc("/api/v1/events", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			r.handlers.SubmitEvent(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	r.mux.HandleFunc("/api/v1/events/recent", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet {
			r.handlers.RecentEvents(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	r.mux.HandleFunc("/api/v1/metrics", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet {
			r.handlers.Metrics(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Handler returns the HTTP handler with middleware applied.
func (r *Router) Handler() http.Handler {
	return corsMiddleware(r.countingMiddleware(r.mux))
}

// corsMiddleware applies CORS headers to all requests. The submission
// endpoint is called directly from browser sessions.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// countingMiddleware tracks HTTP request outcomes by method and error class.
func (r *Router) countingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.recorder == nil {
			next.ServeHTTP(w, req)
			return
		}

		// Skip the metrics and health endpoints to avoid self-counting.
		if req.URL.Path == "/api/v1/metrics" || req.URL.Path == "/health" {
			next.ServeHTTP(w, req)
			return
		}

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, req)

		r.recorder.IncrementCustom("http_" + req.Method)
		if wrapped.statusCode >= 400 {
			r.recorder.IncrementCustom("http_errors")
		}
	})
}

// NewServer creates an HTTP server with the router configured.
func NewServer(port string, h *Handlers, recorder Recorder) *http.Server {
	router := NewRouter(h, recorder)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
