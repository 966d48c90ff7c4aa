package api

import (
	"context"

	"github.com/hendripermana/uiwatch/internal/events"
	"github.com/hendripermana/uiwatch/internal/metrics"
)

// FakeSubmitter scripts pipeline outcomes and records submissions.
type FakeSubmitter struct {
	SubmitErr error
	EventID   string
	Actions   []string
	Events    []*events.MonitoringEvent
}

func (f *FakeSubmitter) Submit(_ context.Context, action string, e *events.MonitoringEvent) (string, error) {
	f.Actions = append(f.Actions, action)
	f.Events = append(f.Events, e)
	if f.SubmitErr != nil {
		return "", f.SubmitErr
	}
	if f.EventID != "" {
		return f.EventID, nil
	}
	return "evt-1", nil
}

// FakeLister scripts recent-event reads.
type FakeLister struct {
	ListErr error
	Result  []events.MonitoringEvent
	Kinds   []events.Kind
	Limits  []int
}

func (f *FakeLister) Recent(_ context.Context, kind events.Kind, limit int) ([]events.MonitoringEvent, error) {
	f.Kinds = append(f.Kinds, kind)
	f.Limits = append(f.Limits, limit)
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Result, nil
}

// FakeSnapshotSource returns a fixed local snapshot.
type FakeSnapshotSource struct {
	Snapshot *metrics.Snapshot
}

func (f *FakeSnapshotSource) GetSnapshot() *metrics.Snapshot {
	return f.Snapshot
}

// FakeSnapshotReader returns fixed component snapshots.
type FakeSnapshotReader struct {
	ReadErr   error
	Snapshots map[string]*metrics.Snapshot
}

func (f *FakeSnapshotReader) GetAll(_ context.Context) (map[string]*metrics.Snapshot, error) {
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	return f.Snapshots, nil
}

// FakeCounter counts middleware increments.
type FakeCounter struct {
	Counts map[string]int
}

func (f *FakeCounter) IncrementCustom(name string) {
	if f.Counts == nil {
		f.Counts = make(map[string]int)
	}
	f.Counts[name]++
}
