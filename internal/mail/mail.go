// Package mail delivers the verification-code emails for account
// activation, email changes and password resets. SMTP settings come from
// the environment; when they are absent the message is logged instead of
// sent so local development works without a mail server.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	netmail "net/mail"
	gosmtp "net/smtp"
	"strings"
	"time"

	"github.com/magictales/backend/internal/config"
)

// Sender is the interface services use to send email.
type Sender interface {
	// Send delivers one plain-text message.
	Send(ctx context.Context, to, subject, body string) error

	// Configured reports whether messages actually leave the process.
	Configured() bool
}

// smtpSender implements Sender over STARTTLS, implicit SSL or plain SMTP.
type smtpSender struct {
	cfg config.MailConfig
}

// NewSender creates a Sender from the given config.
func NewSender(cfg config.MailConfig) Sender {
	return &smtpSender{cfg: cfg}
}

// Configured reports whether SMTP settings are present.
func (s *smtpSender) Configured() bool {
	return s.cfg.Configured()
}

// Send builds an RFC 2822 message and hands it to the transport selected
// by MAIL_ENCRYPTION. Without SMTP settings the message is logged and
// delivery reports success.
func (s *smtpSender) Send(_ context.Context, to, subject, body string) error {
	if !s.cfg.Configured() {
		slog.Info("smtp not configured, logging mail instead",
			slog.String("to", to),
			slog.String("subject", subject),
			slog.String("body", body),
		)
		return nil
	}

	from := netmail.Address{Name: s.cfg.FromName, Address: s.cfg.FromAddress}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from.String()))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	switch s.cfg.Encryption {
	case "ssl":
		return s.sendSSL(addr, to, msg.String())
	case "none":
		return s.sendPlain(addr, to, msg.String())
	default: // "starttls"
		return s.sendStartTLS(addr, to, msg.String())
	}
}

// sendStartTLS sends email using STARTTLS (port 587 typical).
func (s *smtpSender) sendStartTLS(addr, to, msg string) error {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("starting TLS: %w", err)
	}

	if s.cfg.Username != "" {
		auth := gosmtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	return s.sendMessage(client, to, msg)
}

// sendSSL sends email using implicit SSL/TLS (port 465 typical).
func (s *smtpSender) sendSSL(addr, to, msg string) error {
	tlsConfig := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 10 * time.Second}, "tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("connecting to %s (SSL): %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	if s.cfg.Username != "" {
		auth := gosmtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	return s.sendMessage(client, to, msg)
}

// sendPlain sends email without encryption.
func (s *smtpSender) sendPlain(addr, to, msg string) error {
	var auth gosmtp.Auth
	if s.cfg.Username != "" {
		auth = gosmtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := gosmtp.SendMail(addr, auth, s.cfg.FromAddress, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// sendMessage handles MAIL FROM, RCPT TO, DATA for an existing SMTP client.
func (s *smtpSender) sendMessage(client *gosmtp.Client, to, msg string) error {
	if err := client.Mail(s.cfg.FromAddress); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO %s: %w", to, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing data: %w", err)
	}
	return client.Quit()
}
