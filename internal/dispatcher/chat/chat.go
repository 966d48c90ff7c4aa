// Package chat provides the chat notification channel via incoming webhooks
// (Slack-compatible payload format).
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hendripermana/uiwatch/internal/dispatcher/channel"
	"github.com/hendripermana/uiwatch/internal/dispatcher/payload"
)

// Sender implements the chat notification channel.
type Sender struct {
	webhookURL string
	httpClient *http.Client
}

// NewSender creates a chat channel posting to the given webhook URL.
func NewSender(webhookURL string) *Sender {
	return &Sender{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the channel name.
func (s *Sender) Name() string {
	return "chat"
}

// Send posts an alert notification to the chat webhook.
func (s *Sender) Send(ctx context.Context, n *channel.Notification) error {
	if s.webhookURL == "" {
		return fmt.Errorf("chat webhook URL is required")
	}
	if !isValidURL(s.webhookURL) {
		return fmt.Errorf("invalid chat webhook URL: %q (must be a valid HTTP/HTTPS URL)", maskURL(s.webhookURL))
	}

	chatPayload := payload.BuildChatPayload(n)
	jsonData, err := json.Marshal(chatPayload)
	if err != nil {
		return fmt.Errorf("failed to marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send chat notification to %s: %w", maskURL(s.webhookURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chat webhook returned status %d", resp.StatusCode)
	}

	slog.Info("Successfully sent chat notification",
		"title", n.Title,
		"category", n.Category,
	)
	return nil
}

// isValidURL checks if a string is a valid HTTP/HTTPS URL.
func isValidURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// maskURL masks the path of a webhook URL for logging; webhook paths carry
// the secret.
func maskURL(url string) string {
	if len(url) > 40 {
		return url[:30] + "..." + url[len(url)-6:]
	}
	return url
}
