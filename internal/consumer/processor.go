package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hendripermana/uiwatch/internal/events"
	"github.com/hendripermana/uiwatch/internal/ingest"
)

// submitRetryDelay is the pause before retrying after a store failure, so a
// down database does not spin the read loop.
const submitRetryDelay = 2 * time.Second

// Submitter runs submissions through the ingestion pipeline.
type Submitter interface {
	Submit(ctx context.Context, action string, e *events.MonitoringEvent) (string, error)
}

// Recorder counts processing outcomes.
type Recorder interface {
	IncrementCustom(name string)
}

// Processor drains the submission topic into the ingestion pipeline.
type Processor struct {
	consumer MessageConsumer
	pipeline Submitter
	metrics  Recorder
}

// NewProcessor creates a submission processor. The metrics recorder may be
// nil.
func NewProcessor(consumer MessageConsumer, pipeline Submitter, metrics Recorder) *Processor {
	return &Processor{
		consumer: consumer,
		pipeline: pipeline,
		metrics:  metrics,
	}
}

// Run processes submissions until the context is cancelled.
//
// Offsets are committed only after the pipeline accepted the event, so a
// crash between write and commit redelivers the message (at-least-once).
// Malformed and rate-limited submissions are committed past: redelivery
// cannot fix either.
func (p *Processor) Run(ctx context.Context) error {
	slog.Info("Starting event submission processing loop")

	for {
		select {
		case <-ctx.Done():
			slog.Info("Event submission processing loop stopped")
			return nil
		default:
			p.processNext(ctx)
		}
	}
}

func (p *Processor) processNext(ctx context.Context) {
	sub, msg, err := p.consumer.ReadSubmission(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if msg != nil {
			// Malformed message: skip past it or it blocks the partition.
			slog.Error("Skipping malformed event submission", "offset", msg.Offset, "error", err)
			p.count("submissions_malformed")
			p.commit(ctx, msg)
			return
		}
		slog.Error("Failed to read event submission", "error", err)
		return
	}

	event, err := sub.ToEvent()
	if err != nil {
		slog.Error("Skipping invalid event submission",
			"submission_id", sub.SubmissionID,
			"error", err,
		)
		p.count("submissions_invalid")
		p.commit(ctx, msg)
		return
	}

	action := "record_event"
	if event.Kind == events.KindFeedback {
		action = "submit_feedback"
	}

	eventID, err := p.pipeline.Submit(ctx, action, event)
	if err != nil {
		if errors.Is(err, ingest.ErrRateLimited) {
			slog.Warn("Event submission rate limited",
				"submission_id", sub.SubmissionID,
				"error", err,
			)
			p.count("submissions_rate_limited")
			p.commit(ctx, msg)
			return
		}

		// Store failure: leave the offset uncommitted so Kafka redelivers.
		slog.Error("Failed to ingest event submission",
			"submission_id", sub.SubmissionID,
			"error", err,
		)
		p.count("submissions_failed")
		select {
		case <-ctx.Done():
		case <-time.After(submitRetryDelay):
		}
		return
	}

	slog.Debug("Event submission processed",
		"submission_id", sub.SubmissionID,
		"event_id", eventID,
	)
	p.count("submissions_processed")
	p.commit(ctx, msg)
}

func (p *Processor) commit(ctx context.Context, msg *kafka.Message) {
	if err := p.consumer.CommitMessage(ctx, msg); err != nil {
		slog.Error("Failed to commit offset", "offset", msg.Offset, "error", err)
	}
}

func (p *Processor) count(name string) {
	if p.metrics != nil {
		p.metrics.IncrementCustom(name)
	}
}
