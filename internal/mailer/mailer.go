// Package mailer delivers the transactional mail the service sends:
// password-reset links and contact-form notifications. When SMTP is not
// configured, deliveries are logged instead of sent so the flows stay
// usable in development.
package mailer

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Mailer sends a plain-text message. An empty from falls back to the
// configured default sender.
type Mailer interface {
	Send(from, to, subject, body string) error
}

// SMTPConfig carries the connection settings for the SMTP mailer. Secure
// selects implicit TLS (smtps, typically port 465); otherwise the relay's
// STARTTLS upgrade applies.
type SMTPConfig struct {
	Host   string
	Port   int
	User   string
	Pass   string
	From   string
	Secure bool
}

// SMTPMailer delivers mail through a configured SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTP constructs an SMTP-backed mailer.
func NewSMTP(cfg SMTPConfig) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPMailer{cfg: cfg}
}

// Send delivers one message. Errors are returned so callers can decide
// whether delivery is best-effort.
func (m *SMTPMailer) Send(from, to, subject, body string) error {
	if from == "" {
		from = m.cfg.From
	}
	msg := []byte(strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n"))

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)

	var err error
	if m.cfg.Secure {
		err = m.sendTLS(addr, auth, from, to, msg)
	} else {
		err = smtp.SendMail(addr, auth, from, []string{to}, msg)
	}
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// sendTLS speaks SMTP over an implicit TLS connection, which
// smtp.SendMail's STARTTLS path cannot do.
func (m *SMTPMailer) sendTLS(addr string, auth smtp.Auth, from, to string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// LogMailer records deliveries without sending anything.
type LogMailer struct {
	logger *zap.Logger
}

// NewLog constructs the logging fallback mailer.
func NewLog(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message instead of delivering it.
func (m *LogMailer) Send(from, to, subject, body string) error {
	m.logger.Info("mailer: smtp not configured, logging message",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
