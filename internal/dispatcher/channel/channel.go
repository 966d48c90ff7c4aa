// Package channel defines the interface notification channels implement and
// the registry the dispatcher fans out over.
package channel

import (
	"context"

	"github.com/hendripermana/uiwatch/internal/events"
)

// Notification is a dispatch-ready alert: the evaluated condition plus the
// composed message text and channel links.
type Notification struct {
	Category events.Category
	Severity events.Severity
	Title    string
	// Message is the final composed body, including the dashboard link and,
	// when available, the error-tracker deep link.
	Message string
	// EventID references the originating event, when there is one.
	EventID string
	// TrackingID is the error-tracker reference captured for this alert.
	TrackingID string
}

// Channel is a single notification delivery mechanism. A channel failure
// must stay inside Send: return an error, never panic, never block past the
// context deadline.
type Channel interface {
	// Name returns the channel name (e.g. "email", "chat").
	Name() string

	// Send delivers the notification.
	Send(ctx context.Context, n *Notification) error
}

// Registry manages the configured notification channels.
type Registry struct {
	channels []Channel
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a channel to the registry.
func (r *Registry) Register(c Channel) {
	r.channels = append(r.channels, c)
}

// All returns the registered channels in registration order.
func (r *Registry) All() []Channel {
	return r.channels
}

// List returns all registered channel names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.channels))
	for _, c := range r.channels {
		names = append(names, c.Name())
	}
	return names
}
