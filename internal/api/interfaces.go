package api

import (
	"context"

	"github.com/hendripermana/uiwatch/internal/events"
	"github.com/hendripermana/uiwatch/internal/metrics"
)

// EventSubmitter runs inbound events through the ingestion pipeline.
// Satisfied by the ingest pipeline.
type EventSubmitter interface {
	Submit(ctx context.Context, action string, e *events.MonitoringEvent) (string, error)
}

// RecentLister reads back recently recorded events. Satisfied by the store.
type RecentLister interface {
	Recent(ctx context.Context, kind events.Kind, limit int) ([]events.MonitoringEvent, error)
}

// SnapshotSource exposes the local pipeline counters. Satisfied by the
// metrics collector.
type SnapshotSource interface {
	GetSnapshot() *metrics.Snapshot
}

// SnapshotReader reads reported snapshots for all components from Redis.
// Satisfied by the metrics reader.
type SnapshotReader interface {
	GetAll(ctx context.Context) (map[string]*metrics.Snapshot, error)
}
