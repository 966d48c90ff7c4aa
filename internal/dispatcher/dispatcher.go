// Package dispatcher delivers alert conditions to the configured
// notification channels without letting one channel's failure block
// another's.
//
// Dispatch is asynchronous: conditions are enqueued onto a bounded queue and
// delivered by a worker pool, so ingestion never waits on channel I/O. When
// the queue is full new conditions are rejected with a warning rather than
// growing without bound.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hendripermana/uiwatch/internal/dispatcher/channel"
	"github.com/hendripermana/uiwatch/internal/dispatcher/retry"
	"github.com/hendripermana/uiwatch/internal/dispatcher/tracker"
	"github.com/hendripermana/uiwatch/internal/events"
)

// TrackerClient captures alert messages with the error-tracking service.
type TrackerClient interface {
	Configured() bool
	Capture(ctx context.Context, message string, severity events.Severity, tags tracker.Tags) (string, error)
}

// TrackingAttacher links a tracking id back to the originating event.
type TrackingAttacher interface {
	AttachTracking(ctx context.Context, eventID, trackingID string) error
}

// Recorder counts dispatcher outcomes. Satisfied by the metrics collector.
type Recorder interface {
	IncrementCustom(name string)
}

// Config holds dispatcher tuning and link targets.
type Config struct {
	// QueueSize bounds the pending-alert queue.
	QueueSize int
	// Workers is the number of delivery goroutines.
	Workers int
	// ChannelTimeout bounds a single channel delivery, retries included.
	ChannelTimeout time.Duration
	// DashboardURL is appended to every alert message.
	DashboardURL string
	// TrackerViewURL, when set, is the base for tracker deep links.
	TrackerViewURL string
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.ChannelTimeout <= 0 {
		c.ChannelTimeout = 10 * time.Second
	}
	return c
}

// Dispatcher fans alert conditions out to notification channels.
type Dispatcher struct {
	registry *channel.Registry
	tracker  TrackerClient
	attacher TrackingAttacher
	metrics  Recorder
	cfg      Config
	retryCfg retry.Config

	queue chan events.AlertCondition
	wg    sync.WaitGroup
	once  sync.Once
}

// New creates a dispatcher over the given channel registry. The tracker,
// attacher, and metrics recorder may each be nil.
func New(registry *channel.Registry, trackerClient TrackerClient, attacher TrackingAttacher, metrics Recorder, cfg Config) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		registry: registry,
		tracker:  trackerClient,
		attacher: attacher,
		metrics:  metrics,
		cfg:      cfg,
		retryCfg: retry.DefaultConfig(),
		queue:    make(chan events.AlertCondition, cfg.QueueSize),
	}
}

// Start launches the delivery workers. They drain the queue until Stop is
// called; in-flight deliveries finish before Stop returns, even when the
// caller's ctx is already cancelled by a shutdown signal. Every external
// call inside dispatch carries its own timeout.
func (d *Dispatcher) Start(ctx context.Context) {
	base := context.WithoutCancel(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for cond := range d.queue {
				d.dispatch(base, cond)
			}
		}()
	}
	slog.Info("Alert dispatcher started",
		"workers", d.cfg.Workers,
		"queue_size", d.cfg.QueueSize,
		"channels", d.registry.List(),
	)
}

// Stop closes the queue and waits for workers to drain it.
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

// Enqueue hands an alert condition to the delivery workers. Returns false
// when the queue is full; the condition is dropped with a warning, the
// throttle marker already set for it prevents an immediate retry storm.
func (d *Dispatcher) Enqueue(cond events.AlertCondition) bool {
	select {
	case d.queue <- cond:
		return true
	default:
		slog.Warn("Alert queue full, dropping alert",
			"category", cond.Category,
			"title", cond.Title,
		)
		d.record("alerts_dropped")
		return false
	}
}

// dispatch delivers one condition. Every channel failure is contained here:
// logged, counted, never propagated.
func (d *Dispatcher) dispatch(ctx context.Context, cond events.AlertCondition) {
	d.logCondition(cond)

	trackingID := d.captureTracking(ctx, cond)

	n := &channel.Notification{
		Category:   cond.Category,
		Severity:   cond.Severity,
		Title:      cond.Title,
		Message:    d.composeMessage(cond, trackingID),
		EventID:    cond.EventID,
		TrackingID: trackingID,
	}

	for _, ch := range d.registry.All() {
		d.sendToChannel(ctx, ch, n)
	}
	d.record("alerts_dispatched")
}

// logCondition logs the condition locally at a level matching its severity.
func (d *Dispatcher) logCondition(cond events.AlertCondition) {
	attrs := []any{
		"category", cond.Category,
		"title", cond.Title,
		"event_id", cond.EventID,
	}
	if cond.Severity == events.SeverityError {
		slog.Error("Alert condition raised", attrs...)
	} else {
		slog.Warn("Alert condition raised", attrs...)
	}
}

// captureTracking records the alert with the error-tracking service and
// links the returned id back to the originating event. Best-effort: failure
// here never aborts dispatch.
func (d *Dispatcher) captureTracking(ctx context.Context, cond events.AlertCondition) string {
	if d.tracker == nil || !d.tracker.Configured() {
		return ""
	}

	captureCtx, cancel := context.WithTimeout(ctx, d.cfg.ChannelTimeout)
	defer cancel()

	trackingID, err := d.tracker.Capture(captureCtx, cond.Title+": "+cond.Message, cond.Severity, tracker.Tags{
		Category:   cond.Category,
		Monitoring: true,
		EventRef:   cond.EventID,
	})
	if err != nil {
		slog.Warn("Error tracker capture failed", "title", cond.Title, "error", err)
		d.record("channel_failures_tracker")
		return ""
	}

	if trackingID != "" && cond.EventID != "" && d.attacher != nil {
		attachCtx, cancelAttach := context.WithTimeout(ctx, d.cfg.ChannelTimeout)
		defer cancelAttach()
		if err := d.attacher.AttachTracking(attachCtx, cond.EventID, trackingID); err != nil {
			slog.Warn("Failed to attach tracking id to event",
				"event_id", cond.EventID,
				"tracking_id", trackingID,
				"error", err,
			)
		}
	}
	return trackingID
}

// composeMessage builds the final message text with the dashboard link and,
// when available, the tracker deep link.
func (d *Dispatcher) composeMessage(cond events.AlertCondition, trackingID string) string {
	message := cond.Message
	if d.cfg.DashboardURL != "" {
		message += fmt.Sprintf("\n\nDashboard: %s", d.cfg.DashboardURL)
	}
	if trackingID != "" && d.cfg.TrackerViewURL != "" {
		message += fmt.Sprintf("\nTracker: %s/%s", d.cfg.TrackerViewURL, trackingID)
	}
	return message
}

// sendToChannel delivers to a single channel with retry, bounded by the
// per-channel timeout. Failures are logged and counted only.
func (d *Dispatcher) sendToChannel(ctx context.Context, ch channel.Channel, n *channel.Notification) {
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.ChannelTimeout)
	defer cancel()

	operation := fmt.Sprintf("send_%s", ch.Name())
	err := retry.WithRetry(sendCtx, d.retryCfg, operation, func() error {
		return ch.Send(sendCtx, n)
	})
	if err != nil {
		slog.Error("Channel delivery failed",
			"channel", ch.Name(),
			"title", n.Title,
			"error", err,
		)
		d.record("channel_failures_" + ch.Name())
	}
}

func (d *Dispatcher) record(name string) {
	if d.metrics != nil {
		d.metrics.IncrementCustom(name)
	}
}
