// Package tracker provides the error-tracking service client. The dispatcher
// captures a message per alert and, when the service returns a tracking id,
// links it back to the originating event and into the notification text.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hendripermana/uiwatch/internal/events"
)

// Tags classify a captured message in the error-tracking service.
type Tags struct {
	Category   events.Category `json:"category"`
	Monitoring bool            `json:"monitoring"`
	EventRef   string          `json:"event_ref,omitempty"`
}

// captureRequest is the wire format of a capture call.
type captureRequest struct {
	Message  string          `json:"message"`
	Level    events.Severity `json:"level"`
	Tags     Tags            `json:"tags"`
	Platform string          `json:"platform"`
}

// captureResponse is the wire format of a capture response.
type captureResponse struct {
	ID string `json:"id"`
}

// Client captures alert messages against an error-tracking service's HTTP
// store endpoint.
type Client struct {
	captureURL string
	authToken  string
	httpClient *http.Client
}

// NewClient creates a tracker client. An empty captureURL disables capture;
// Capture then reports not-configured without touching the network.
func NewClient(captureURL, authToken string) *Client {
	return &Client{
		captureURL: captureURL,
		authToken:  authToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether a capture endpoint is set.
func (c *Client) Configured() bool {
	return c.captureURL != ""
}

// Capture records a message with the error-tracking service and returns the
// tracking id, when the service provides one.
func (c *Client) Capture(ctx context.Context, message string, severity events.Severity, tags Tags) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("error tracker not configured")
	}

	body, err := json.Marshal(captureRequest{
		Message:  message,
		Level:    severity,
		Tags:     tags,
		Platform: "uiwatch",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal capture request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.captureURL, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create capture request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to capture tracker message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("error tracker returned status %d", resp.StatusCode)
	}

	var captured captureResponse
	if err := json.NewDecoder(resp.Body).Decode(&captured); err != nil {
		// Capture succeeded; only the tracking id is lost.
		slog.Warn("Failed to decode tracker response", "error", err)
		return "", nil
	}
	return captured.ID, nil
}
