package evaluator

import (
	"context"
	"time"

	"github.com/hendripermana/uiwatch/internal/events"
)

// FakeQuerier is a test fake for EventQuerier.
type FakeQuerier struct {
	CountResult int
	CountErr    error
	CountCalls  []CountCall

	AverageResult map[string]float64
	AverageErr    error

	GroupResults map[events.Kind]map[string]int
	GroupErr     error

	ListResult []events.MonitoringEvent
	ListErr    error
}

type CountCall struct {
	Kind       events.Kind
	FieldPath  string
	FieldValue string
	Since      time.Time
}

func (f *FakeQuerier) CountMatching(_ context.Context, kind events.Kind, fieldPath, fieldValue string, since time.Time) (int, error) {
	f.CountCalls = append(f.CountCalls, CountCall{Kind: kind, FieldPath: fieldPath, FieldValue: fieldValue, Since: since})
	if f.CountErr != nil {
		return 0, f.CountErr
	}
	return f.CountResult, nil
}

func (f *FakeQuerier) GroupAverage(_ context.Context, _ events.Kind, _, _ string, _ time.Time) (map[string]float64, error) {
	if f.AverageErr != nil {
		return nil, f.AverageErr
	}
	return f.AverageResult, nil
}

func (f *FakeQuerier) GroupCount(_ context.Context, kind events.Kind, _ string, _ time.Time) (map[string]int, error) {
	if f.GroupErr != nil {
		return nil, f.GroupErr
	}
	return f.GroupResults[kind], nil
}

func (f *FakeQuerier) ListMatching(_ context.Context, _ events.Kind, _, _ string, _ time.Time, _ int) ([]events.MonitoringEvent, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.ListResult, nil
}
