package consumer

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/hendripermana/uiwatch/internal/events"
)

// readResult scripts one ReadSubmission outcome.
type readResult struct {
	sub *Submission
	msg *kafka.Message
	err error
}

// FakeConsumer replays a scripted sequence of reads, then cancels the
// processor's context so Run returns.
type FakeConsumer struct {
	Results   []readResult
	Cancel    context.CancelFunc
	next      int
	Committed []int64
}

func (f *FakeConsumer) ReadSubmission(ctx context.Context) (*Submission, *kafka.Message, error) {
	if f.next >= len(f.Results) {
		f.Cancel()
		return nil, nil, ctx.Err()
	}
	r := f.Results[f.next]
	f.next++
	return r.sub, r.msg, r.err
}

func (f *FakeConsumer) CommitMessage(_ context.Context, msg *kafka.Message) error {
	f.Committed = append(f.Committed, msg.Offset)
	return nil
}

func (f *FakeConsumer) Close() error {
	return nil
}

// FakeSubmitter records submissions and scripts pipeline failures.
type FakeSubmitter struct {
	SubmitErr error
	FailOnce  bool
	Actions   []string
	Events    []*events.MonitoringEvent
}

func (f *FakeSubmitter) Submit(_ context.Context, action string, e *events.MonitoringEvent) (string, error) {
	if f.SubmitErr != nil {
		err := f.SubmitErr
		if f.FailOnce {
			f.SubmitErr = nil
		}
		return "", err
	}
	f.Actions = append(f.Actions, action)
	f.Events = append(f.Events, e)
	return "evt-1", nil
}

// FakeMetrics counts increments by name.
type FakeMetrics struct {
	Counts map[string]int
}

func (f *FakeMetrics) IncrementCustom(name string) {
	if f.Counts == nil {
		f.Counts = make(map[string]int)
	}
	f.Counts[name]++
}
