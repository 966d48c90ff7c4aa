// Package store provides append-only persistence and query support for
// monitoring events, backed by PostgreSQL.
//
// The store never deletes or anonymizes events; retention is owned by an
// external collaborator.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/hendripermana/uiwatch/internal/events"
)

// ErrInvalidEvent is returned when an inbound event fails validation.
var ErrInvalidEvent = errors.New("invalid monitoring event")

// ErrNotFound is returned when an event does not exist.
var ErrNotFound = errors.New("event not found")

// Schema is the table definition the store operates on. Applied by
// EnsureSchema on startup; safe to re-run.
const Schema = `
CREATE TABLE IF NOT EXISTS monitoring_events (
	event_id   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	kind       TEXT NOT NULL CHECK (kind <> ''),
	payload    JSONB NOT NULL DEFAULT '{}'::jsonb,
	user_id    TEXT,
	session_id TEXT,
	addr       TEXT,
	user_agent TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_monitoring_events_kind_created
	ON monitoring_events (kind, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_monitoring_events_payload
	ON monitoring_events USING GIN (payload);
`

// Store wraps a database connection and provides monitoring event operations.
type Store struct {
	conn *sql.DB
}

// New creates a new event store using the provided Postgres DSN.
func New(dsn string) (*Store, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL database")

	return &Store{conn: conn}, nil
}

// NewWithConn creates a store over an existing connection. Used by tests.
func NewWithConn(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

// EnsureSchema creates the monitoring_events table and indexes if absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		slog.Info("Closing event store connection")
		return s.conn.Close()
	}
	return nil
}

// Record validates and persists a monitoring event, returning its id.
// The row is visible to subsequent queries immediately.
func (s *Store) Record(ctx context.Context, event *events.MonitoringEvent) (string, error) {
	if event == nil || event.Kind == "" {
		return "", fmt.Errorf("%w: event kind cannot be empty", ErrInvalidEvent)
	}
	payload := event.Payload
	if payload == nil {
		payload = events.Payload{}
	}

	query := `
		INSERT INTO monitoring_events (kind, payload, user_id, session_id, addr, user_agent, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NOW())
		RETURNING event_id, created_at
	`
	err := s.conn.QueryRowContext(ctx, query,
		event.Kind.String(),
		payload,
		event.UserID,
		event.SessionID,
		event.Addr,
		event.UserAgent,
	).Scan(&event.EventID, &event.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to record monitoring event: %w", err)
	}
	return event.EventID, nil
}

// Get retrieves a single event by id.
func (s *Store) Get(ctx context.Context, eventID string) (*events.MonitoringEvent, error) {
	query := `
		SELECT event_id, kind, payload,
		       COALESCE(user_id, ''), COALESCE(session_id, ''),
		       COALESCE(addr, ''), COALESCE(user_agent, ''), created_at
		FROM monitoring_events
		WHERE event_id = $1
	`
	var ev events.MonitoringEvent
	var kind string
	err := s.conn.QueryRowContext(ctx, query, eventID).Scan(
		&ev.EventID,
		&kind,
		&ev.Payload,
		&ev.UserID,
		&ev.SessionID,
		&ev.Addr,
		&ev.UserAgent,
		&ev.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monitoring event: %w", err)
	}
	ev.Kind = events.Kind(kind)
	return &ev, nil
}

// AttachTracking merges an error-tracker reference into an event's payload.
// This is the one sanctioned post-ingest payload mutation; it is best-effort
// and callers treat failures as non-fatal.
func (s *Store) AttachTracking(ctx context.Context, eventID, trackingID string) error {
	query := `
		UPDATE monitoring_events
		SET payload = jsonb_set(payload, '{error_tracker_id}', to_jsonb($2::text), true)
		WHERE event_id = $1
	`
	result, err := s.conn.ExecContext(ctx, query, eventID, trackingID)
	if err != nil {
		return fmt.Errorf("failed to attach tracking id: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, eventID)
	}
	return nil
}
