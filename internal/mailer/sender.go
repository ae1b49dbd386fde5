// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

// Package mailer delivers transactional mail. The request path only ever
// enqueues onto an in-process outbox (Watermill); a worker drains the
// outbox and talks SMTP behind a circuit breaker, so a slow or dead mail
// server cannot stall HTTP handlers.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/enconsulting/projectdesk/internal/config"
	"github.com/enconsulting/projectdesk/internal/logging"
)

// Sender delivers a single password-reset mail.
type Sender interface {
	SendPasswordReset(ctx context.Context, to, code string, expires time.Time) error
}

// SMTPSender implements Sender over plain SMTP with optional STARTTLS.
// A circuit breaker opens after consecutive failures so a broken mail
// server is not hammered on every reset request.
type SMTPSender struct {
	cfg     config.SMTPConfig
	breaker *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration
}

// NewSMTPSender creates a sender for the configured SMTP server.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "smtp",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	return &SMTPSender{cfg: cfg, breaker: breaker, timeout: 30 * time.Second}
}

// SendPasswordReset delivers the reset code to the recipient.
func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, code string, expires time.Time) error {
	msg := s.buildResetMessage(to, code, expires)
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.send(ctx, to, msg)
	})
	if err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

func (s *SMTPSender) buildResetMessage(to, code string, expires time.Time) string {
	fromName := s.cfg.FromName
	if fromName == "" {
		fromName = "Projectdesk"
	}
	ttl := time.Until(expires).Round(time.Minute)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", fromName, s.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString("Subject: Your password reset code\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf("Your password reset code is: %s\r\n\r\n", code))
	msg.WriteString(fmt.Sprintf("The code expires in %v. If you did not request a reset, you can ignore this message.\r\n", ttl))
	return msg.String()
}

func (s *SMTPSender) send(ctx context.Context, to, msg string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	dialer := &net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if s.cfg.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: s.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// Message is already accepted at this point; a failed QUIT is not an
	// error.
	_ = client.Quit()
	return nil
}
