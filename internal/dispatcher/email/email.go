// Package email provides the email notification channel. Delivery goes
// through a local SMTP relay when one is configured, otherwise through the
// provider registry (Resend, SES).
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/hendripermana/uiwatch/internal/dispatcher/channel"
	"github.com/hendripermana/uiwatch/internal/dispatcher/email/provider"
	"github.com/hendripermana/uiwatch/internal/dispatcher/payload"
)

// Config holds email channel configuration. SMTP credentials default from
// the environment (SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD,
// SMTP_FROM) when constructed via NewSender.
type Config struct {
	Host       string
	Port       string
	User       string
	Password   string
	From       string
	Recipients []string
}

// Sender implements the email notification channel.
type Sender struct {
	cfg       Config
	providers *provider.Registry
}

// NewSender creates an email channel with SMTP settings from the environment
// and the given recipient list.
func NewSender(recipients []string, providers *provider.Registry) *Sender {
	return NewSenderWithConfig(Config{
		Host:       provider.GetEnvOrDefault("SMTP_HOST", ""),
		Port:       provider.GetEnvOrDefault("SMTP_PORT", "1025"),
		User:       provider.GetEnvOrDefault("SMTP_USER", ""),
		Password:   provider.GetEnvOrDefault("SMTP_PASSWORD", ""),
		From:       provider.GetEnvOrDefault("SMTP_FROM", "alerts@uiwatch.local"),
		Recipients: recipients,
	}, providers)
}

// NewSenderWithConfig creates an email channel with explicit configuration.
func NewSenderWithConfig(cfg Config, providers *provider.Registry) *Sender {
	return &Sender{cfg: cfg, providers: providers}
}

// Name returns the channel name.
func (s *Sender) Name() string {
	return "email"
}

// Send delivers an alert notification to the configured recipients.
func (s *Sender) Send(ctx context.Context, n *channel.Notification) error {
	if len(s.cfg.Recipients) == 0 {
		return fmt.Errorf("email recipient is required")
	}
	for _, recipient := range s.cfg.Recipients {
		if !strings.Contains(recipient, "@") {
			return fmt.Errorf("invalid email address format: %q", recipient)
		}
	}

	p := payload.BuildEmailPayload(n)

	if s.cfg.Host != "" {
		if err := s.sendSMTP(p.Subject, p.Body); err != nil {
			return err
		}
	} else if s.providers != nil {
		req := &provider.EmailRequest{
			From:    s.cfg.From,
			To:      s.cfg.Recipients,
			Subject: p.Subject,
			Body:    p.Body,
		}
		if err := s.providers.Send(ctx, req); err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	} else {
		return fmt.Errorf("no email transport configured")
	}

	slog.Info("Successfully sent email notification",
		"to", strings.Join(s.cfg.Recipients, ", "),
		"subject", p.Subject,
	)
	return nil
}

// sendSMTP sends via the configured SMTP server. Ports 587 and 465 use the
// TLS path; anything else uses plain SMTP (local relays like MailHog).
func (s *Sender) sendSMTP(subject, body string) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	port, err := strconv.Atoi(s.cfg.Port)
	if err != nil {
		return fmt.Errorf("invalid SMTP port: %s", s.cfg.Port)
	}

	msg := buildMessage(s.cfg.From, s.cfg.Recipients, subject, body)

	if port == 587 || port == 465 {
		return s.sendWithTLS(addr, port, msg)
	}

	var auth smtp.Auth
	if s.cfg.User != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, s.cfg.Recipients, msg); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", addr, err)
	}
	return nil
}
