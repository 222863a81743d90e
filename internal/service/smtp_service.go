package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/osa911/contactform/internal/version"
)

// SMTPConfig configures the mail transport
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	To        string
	FromName  string
	FromEmail string
}

// SMTPService delivers notifications as plain-text email
type SMTPService struct {
	cfg         SMTPConfig
	dialTimeout time.Duration
}

// NewSMTPService creates a new mail transport
func NewSMTPService(cfg SMTPConfig) *SMTPService {
	return &SMTPService{cfg: cfg, dialTimeout: 10 * time.Second}
}

func (s *SMTPService) Name() string { return "smtp" }

// Send delivers n to the configured recipient, upgrading to TLS when the
// server offers STARTTLS
func (s *SMTPService) Send(ctx context.Context, n Notification) error {
	if s.cfg.Host == "" || s.cfg.To == "" || s.cfg.FromEmail == "" {
		return fmt.Errorf("smtp host, recipient or sender: %w", ErrNotConfigured)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := net.Dialer{Timeout: s.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start smtp session: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("failed to start tls: %w", err)
		}
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp authentication failed: %w", err)
		}
	}

	if err := c.Mail(s.cfg.FromEmail); err != nil {
		return fmt.Errorf("smtp MAIL FROM rejected: %w", err)
	}
	if err := c.Rcpt(s.cfg.To); err != nil {
		return fmt.Errorf("smtp RCPT TO rejected: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA rejected: %w", err)
	}
	if _, err := w.Write(s.buildMessage(n, time.Now())); err != nil {
		w.Close()
		return fmt.Errorf("failed to write smtp message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	return c.Quit()
}

// buildMessage renders headers and body with CRLF line endings
func (s *SMTPService) buildMessage(n Notification, now time.Time) []byte {
	from := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.cfg.FromName), s.cfg.FromEmail)
	}

	headers := []string{
		"From: " + from,
		"To: " + s.cfg.To,
		"Reply-To: " + s.cfg.FromEmail,
		"Subject: " + mime.QEncoding.Encode("utf-8", n.Subject),
		"Date: " + now.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"Content-Transfer-Encoding: 8bit",
		"X-Mailer: contactform/" + version.Version,
	}

	body := strings.ReplaceAll(n.Body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\n", "\r\n")

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
}
