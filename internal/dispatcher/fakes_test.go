package dispatcher

import (
	"context"
	"sync"

	"github.com/hendripermana/uiwatch/internal/dispatcher/channel"
	"github.com/hendripermana/uiwatch/internal/dispatcher/tracker"
	"github.com/hendripermana/uiwatch/internal/events"
)

// FakeChannel records sent notifications and fails on demand.
type FakeChannel struct {
	mu sync.Mutex

	ChannelName string
	SendErr     error
	Sent        []*channel.Notification
}

func (f *FakeChannel) Name() string {
	return f.ChannelName
}

func (f *FakeChannel) Send(ctx context.Context, n *channel.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	f.Sent = append(f.Sent, n)
	return nil
}

func (f *FakeChannel) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}

func (f *FakeChannel) LastSent() *channel.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Sent) == 0 {
		return nil
	}
	return f.Sent[len(f.Sent)-1]
}

// FakeTracker simulates the error-tracking client.
type FakeTracker struct {
	IsConfigured bool
	CaptureID    string
	CaptureErr   error
	Captured     []string
	CapturedTags []tracker.Tags
}

func (f *FakeTracker) Configured() bool {
	return f.IsConfigured
}

func (f *FakeTracker) Capture(_ context.Context, message string, _ events.Severity, tags tracker.Tags) (string, error) {
	if f.CaptureErr != nil {
		return "", f.CaptureErr
	}
	f.Captured = append(f.Captured, message)
	f.CapturedTags = append(f.CapturedTags, tags)
	return f.CaptureID, nil
}

// FakeAttacher records tracking-id attachments and whether the call carried
// a deadline.
type FakeAttacher struct {
	AttachErr    error
	EventIDs     []string
	Tracking     []string
	HadDeadlines []bool
}

func (f *FakeAttacher) AttachTracking(ctx context.Context, eventID, trackingID string) error {
	_, hasDeadline := ctx.Deadline()
	f.HadDeadlines = append(f.HadDeadlines, hasDeadline)
	if f.AttachErr != nil {
		return f.AttachErr
	}
	f.EventIDs = append(f.EventIDs, eventID)
	f.Tracking = append(f.Tracking, trackingID)
	return nil
}

// FakeRecorder counts metric increments by name.
type FakeRecorder struct {
	mu     sync.Mutex
	Counts map[string]int
}

func (f *FakeRecorder) IncrementCustom(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Counts == nil {
		f.Counts = make(map[string]int)
	}
	f.Counts[name]++
}

func (f *FakeRecorder) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Counts[name]
}
