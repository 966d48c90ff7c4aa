// Package payload provides message builders for the notification channels.
package payload

import (
	"fmt"
	"strings"
	"time"

	"github.com/hendripermana/uiwatch/internal/dispatcher/channel"
	"github.com/hendripermana/uiwatch/internal/events"
)

// EmailPayload represents email message content.
type EmailPayload struct {
	Subject string
	Body    string
}

// BuildEmailPayload builds email subject and body from a notification.
func BuildEmailPayload(n *channel.Notification) EmailPayload {
	subject := fmt.Sprintf("[UI Monitoring] %s", n.Title)

	var sb strings.Builder
	sb.WriteString("UI Monitoring Alert\n")
	sb.WriteString("===================\n\n")
	fmt.Fprintf(&sb, "Category: %s\n", n.Category)
	fmt.Fprintf(&sb, "Severity: %s\n", n.Severity)
	if n.EventID != "" {
		fmt.Fprintf(&sb, "Event ID: %s\n", n.EventID)
	}
	sb.WriteString("\n")
	sb.WriteString(n.Message)
	sb.WriteString("\n")

	return EmailPayload{Subject: subject, Body: sb.String()}
}

// ChatPayload represents a chat webhook payload (Slack-compatible).
type ChatPayload struct {
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a chat message attachment.
type Attachment struct {
	Color     string  `json:"color,omitempty"`
	Title     string  `json:"title,omitempty"`
	Text      string  `json:"text,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	Timestamp int64   `json:"ts,omitempty"`
}

// Field represents a field in a chat attachment.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// BuildChatPayload builds a chat webhook payload from a notification.
func BuildChatPayload(n *channel.Notification) ChatPayload {
	fields := []Field{
		{Title: "Category", Value: string(n.Category), Short: true},
		{Title: "Severity", Value: string(n.Severity), Short: true},
	}
	if n.EventID != "" {
		fields = append(fields, Field{Title: "Event ID", Value: n.EventID, Short: true})
	}
	if n.TrackingID != "" {
		fields = append(fields, Field{Title: "Tracking ID", Value: n.TrackingID, Short: true})
	}

	return ChatPayload{
		Attachments: []Attachment{
			{
				Color:     severityColor(n.Severity),
				Title:     n.Title,
				Text:      n.Message,
				Fields:    fields,
				Timestamp: time.Now().Unix(),
			},
		},
	}
}

// severityColor returns the chat attachment color for a severity.
func severityColor(severity events.Severity) string {
	switch severity {
	case events.SeverityError:
		return "danger"
	case events.SeverityWarning:
		return "warning"
	default:
		return "good"
	}
}
