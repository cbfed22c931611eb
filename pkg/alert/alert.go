// Package alert delivers operational notifications over SMTP. The server
// command wires it to the retrieval circuit breaker so operators hear about
// degraded vector search without watching logs.
package alert

import (
	"fmt"
	"net/smtp"
	"strings"
)

// subjectPrefix tags alert mail so operators can filter on it.
const subjectPrefix = "[lexigraph]"

// Alerter sends a notification with a short subject and a message body.
type Alerter interface {
	Alert(subject, message string) error
}

// Config holds SMTP settings for the email alerter.
type Config struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// EmailAlerter sends alerts as plain-text mail to a fixed recipient list.
type EmailAlerter struct {
	cfg Config
}

// NewEmailAlerter creates an alerter for the given SMTP settings. A
// disabled config yields an alerter whose Alert is a no-op, so callers
// never need to branch on cfg.Enabled themselves.
func NewEmailAlerter(cfg Config) *EmailAlerter {
	return &EmailAlerter{cfg: cfg}
}

// Alert sends one mail per call. Returns nil without sending when alerting
// is disabled.
func (a *EmailAlerter) Alert(subject, message string) error {
	if !a.cfg.Enabled {
		return nil
	}

	auth := smtp.PlainAuth("", a.cfg.Username, a.cfg.Password, a.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", a.cfg.SMTPHost, a.cfg.SMTPPort)
	msg := formatMessage(a.cfg.From, a.cfg.To, subject, message)

	if err := smtp.SendMail(addr, auth, a.cfg.From, a.cfg.To, msg); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}

// formatMessage assembles the RFC 5322 headers and body. The subject is
// prefixed with the service tag exactly once.
func formatMessage(from string, to []string, subject, body string) []byte {
	if !strings.HasPrefix(subject, subjectPrefix) {
		subject = subjectPrefix + " " + subject
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// NoOpAlerter discards alerts. Used where an Alerter is required but
// notifications are not configured.
type NoOpAlerter struct{}

func (n *NoOpAlerter) Alert(subject, message string) error {
	return nil
}
