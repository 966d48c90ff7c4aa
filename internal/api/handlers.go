// Package api provides the HTTP surface for event submission and read-back.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hendripermana/uiwatch/internal/events"
	"github.com/hendripermana/uiwatch/internal/ingest"
	"github.com/hendripermana/uiwatch/internal/metrics"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 200

	// maxEventBodyBytes caps a single event submission. Payloads are small
	// JSON blobs; anything bigger is rejected before parsing completes.
	maxEventBodyBytes = 64 << 10
)

// Handlers wraps dependencies for the HTTP handlers.
type Handlers struct {
	pipeline EventSubmitter
	store    RecentLister
	local    SnapshotSource
	reader   SnapshotReader
}

// NewHandlers creates a handlers instance. The snapshot source and reader may
// be nil; the metrics endpoint then reports what it has.
func NewHandlers(pipeline EventSubmitter, store RecentLister, local SnapshotSource, reader SnapshotReader) *Handlers {
	return &Handlers{
		pipeline: pipeline,
		store:    store,
		local:    local,
		reader:   reader,
	}
}

// SubmitEventRequest is the body of an event submission.
type SubmitEventRequest struct {
	Kind      string         `json:"kind"`
	Payload   events.Payload `json:"payload"`
	UserID    string         `json:"user_id"`
	SessionID string         `json:"session_id"`
}

// SubmitEventResponse acknowledges an accepted event.
type SubmitEventResponse struct {
	EventID string `json:"event_id"`
}

// SubmitEvent accepts a monitoring event and runs it through the pipeline.
// Responds 202 on success; alert evaluation and dispatch happen after the
// write and never delay or fail the response.
func (h *Handlers) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEventBodyBytes)

	var req SubmitEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	kind, err := events.ParseKind(req.Kind)
	if err != nil {
		http.Error(w, "kind is required", http.StatusBadRequest)
		return
	}

	event := &events.MonitoringEvent{
		Kind:      kind,
		Payload:   req.Payload,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Addr:      r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}

	action := "record_event"
	if kind == events.KindFeedback {
		action = "submit_feedback"
	}

	eventID, err := h.pipeline.Submit(r.Context(), action, event)
	if err != nil {
		if rle, ok := ingest.AsRateLimited(err); ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(rle.RetryAfter)))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		if errors.Is(err, ingest.ErrInvalidEvent) {
			http.Error(w, "Invalid event", http.StatusBadRequest)
			return
		}
		slog.Error("Failed to ingest event", "kind", kind, "error", err)
		http.Error(w, "Event store unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(SubmitEventResponse{EventID: eventID})
}

// retryAfterSeconds rounds a retry hint up to whole seconds, minimum 1.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RecentEvents returns the most recently recorded events, newest first.
// Optional query parameters: kind (filter), limit (default 50, max 200).
func (h *Handlers) RecentEvents(w http.ResponseWriter, r *http.Request) {
	var kind events.Kind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		parsed, err := events.ParseKind(raw)
		if err != nil {
			http.Error(w, "invalid kind", http.StatusBadRequest)
			return
		}
		kind = parsed
	}

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	result, err := h.store.Recent(r.Context(), kind, limit)
	if err != nil {
		slog.Error("Failed to list recent events", "error", err)
		http.Error(w, "Failed to list recent events", http.StatusInternalServerError)
		return
	}
	if result == nil {
		result = []events.MonitoringEvent{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// MetricsResponse combines the local pipeline counters with the snapshots
// other components reported to Redis.
type MetricsResponse struct {
	Local      *metrics.Snapshot            `json:"local,omitempty"`
	Components map[string]*metrics.Snapshot `json:"components,omitempty"`
}

// Metrics reports pipeline counters.
func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	resp := MetricsResponse{}
	if h.local != nil {
		resp.Local = h.local.GetSnapshot()
	}
	if h.reader != nil {
		components, err := h.reader.GetAll(r.Context())
		if err != nil {
			slog.Warn("Failed to read component metrics", "error", err)
		} else {
			resp.Components = components
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
