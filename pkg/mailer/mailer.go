// Package mailer sends transactional email over SMTP. The session service
// uses it for best-effort welcome notices after registration; delivery
// failures are logged, never surfaced to the registering user.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends a single message.
type Mailer interface {
	Send(recipient, subject, body string) error
}

// Noop discards mail. Used when no SMTP server is configured.
type Noop struct{}

func (Noop) Send(string, string, string) error { return nil }

// SMTPMailer is a Mailer backed by a plain-auth SMTP server.
type SMTPMailer struct {
	host   string
	port   string
	user   string
	pass   string
	sender string
}

// SMTPMailerConfig contains options for creating an SMTPMailer.
type SMTPMailerConfig struct {
	Host   string
	Port   string
	User   string
	Pass   string
	Sender string
}

// NewSMTPMailer creates an SMTPMailer. Host, user, pass and sender are
// required.
func NewSMTPMailer(cfg SMTPMailerConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host cannot be empty")
	}
	if cfg.User == "" || cfg.Pass == "" {
		return nil, fmt.Errorf("SMTP username and password must be provided")
	}
	if cfg.Sender == "" {
		return nil, fmt.Errorf("sender email address cannot be empty")
	}
	port := cfg.Port
	if port == "" {
		port = "2525"
	}
	return &SMTPMailer{
		host:   cfg.Host,
		port:   port,
		user:   cfg.User,
		pass:   cfg.Pass,
		sender: cfg.Sender,
	}, nil
}

// Send delivers a single message. The Content-Type header is inferred
// from the body: anything that looks like HTML is sent as text/html.
func (m *SMTPMailer) Send(recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("recipient email address cannot be empty")
	}
	if subject == "" {
		return fmt.Errorf("email subject cannot be empty")
	}

	contentType := "text/plain; charset=UTF-8"
	if strings.Contains(strings.ToLower(body), "<html>") || strings.Contains(strings.ToLower(body), "<p>") {
		contentType = "text/html; charset=UTF-8"
	}

	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", recipient, m.sender, subject, contentType, body))

	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.sender, []string{recipient}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
