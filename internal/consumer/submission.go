package consumer

import (
	"github.com/google/uuid"

	"github.com/hendripermana/uiwatch/internal/events"
)

// Submission is the wire format of one event on the submission topic.
// SubmissionID identifies the message across redeliveries; producers that
// omit it get one assigned on first read.
type Submission struct {
	SubmissionID string         `json:"submission_id,omitempty"`
	Kind         string         `json:"kind"`
	Payload      events.Payload `json:"payload"`
	UserID       string         `json:"user_id,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	Addr         string         `json:"addr,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
}

// ToEvent validates the submission and converts it to a monitoring event.
// Assigns a submission id when the producer omitted one.
func (s *Submission) ToEvent() (*events.MonitoringEvent, error) {
	kind, err := events.ParseKind(s.Kind)
	if err != nil {
		return nil, err
	}
	if s.SubmissionID == "" {
		s.SubmissionID = uuid.NewString()
	}
	return &events.MonitoringEvent{
		Kind:      kind,
		Payload:   s.Payload,
		UserID:    s.UserID,
		SessionID: s.SessionID,
		Addr:      s.Addr,
		UserAgent: s.UserAgent,
	}, nil
}
