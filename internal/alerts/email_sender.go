package alerts

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

const (
	smtpSecurityNone     = "none"
	smtpSecurityStartTLS = "starttls"
	smtpSecurityTLS      = "tls"
)

// EmailSenderOptions configures the SMTP sender. Server settings are
// global; recipients come from each channel's "recipients" config key.
type EmailSenderOptions struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	Security      string
	Timeout       time.Duration
	SkipTLSVerify bool
	Logger        *slog.Logger
}

// EmailSender delivers alert notifications over SMTP.
type EmailSender struct {
	host          string
	port          int
	username      string
	password      string
	from          string
	security      string
	timeout       time.Duration
	skipTLSVerify bool
	logger        *slog.Logger
}

// NewEmailSender constructs an SMTP sender.
func NewEmailSender(opts EmailSenderOptions) *EmailSender {
	security := strings.ToLower(strings.TrimSpace(opts.Security))
	switch security {
	case smtpSecurityNone, smtpSecurityStartTLS, smtpSecurityTLS:
	default:
		security = smtpSecurityStartTLS
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailSender{
		host:          strings.TrimSpace(opts.Host),
		port:          opts.Port,
		username:      strings.TrimSpace(opts.Username),
		password:      opts.Password,
		from:          strings.TrimSpace(opts.From),
		security:      security,
		timeout:       timeout,
		skipTLSVerify: opts.SkipTLSVerify,
		logger:        logger.With("component", "alert_email_sender"),
	}
}

// Send mails the notification to every recipient listed in the channel's
// "recipients" config key (comma-separated).
func (s *EmailSender) Send(ctx context.Context, channel *models.NotificationChannel, n Notification) error {
	recipients := splitRecipients(channel.Config["recipients"])
	if len(recipients) == 0 {
		return fmt.Errorf("channel %d has no recipients configured", channel.ID)
	}
	if s.host == "" || s.port == 0 || s.from == "" {
		return fmt.Errorf("smtp is not configured")
	}

	var errs []string
	for _, recipient := range recipients {
		message := s.buildMessage(n, recipient)
		if err := s.sendEmail(ctx, recipient, message); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", recipient, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("email delivery failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (s *EmailSender) buildMessage(n Notification, recipient string) []byte {
	subject := fmt.Sprintf("[Rackwatch] %s (%s)", n.RuleName, strings.ToUpper(string(n.Severity)))
	body := s.buildBody(n)
	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", recipient),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
}

func (s *EmailSender) buildBody(n Notification) string {
	lines := []string{
		fmt.Sprintf("Rule: %s", n.RuleName),
		fmt.Sprintf("Severity: %s", strings.ToUpper(string(n.Severity))),
		fmt.Sprintf("Resource: %s %s", n.ResourceType, n.ResourceName),
		fmt.Sprintf("Threshold: %s", n.ThresholdValue),
		fmt.Sprintf("Actual: %s", n.ActualValue),
		fmt.Sprintf("Triggered At: %s", n.TriggeredAt.Format(time.RFC3339)),
	}
	if n.Message != "" {
		lines = append(lines, fmt.Sprintf("Message: %s", n.Message))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (s *EmailSender) sendEmail(ctx context.Context, recipient string, message []byte) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(s.from); err != nil {
		return err
	}
	if err := client.Rcpt(recipient); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write(message); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (s *EmailSender) connect(ctx context.Context) (*smtp.Client, error) {
	address := fmt.Sprintf("%s:%d", s.host, s.port)
	dialer := &net.Dialer{Timeout: s.timeout}
	var (
		conn net.Conn
		err  error
	)
	if s.security == smtpSecurityTLS {
		tlsConfig := &tls.Config{ServerName: s.host, InsecureSkipVerify: s.skipTLSVerify} // #nosec G402
		conn, err = tls.DialWithDialer(dialer, "tcp", address, tlsConfig)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", address)
	}
	if err != nil {
		return nil, err
	}
	if s.timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.timeout))
	}
	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if s.security == smtpSecurityStartTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			_ = client.Close()
			return nil, fmt.Errorf("smtp server does not support STARTTLS")
		}
		tlsConfig := &tls.Config{ServerName: s.host, InsecureSkipVerify: s.skipTLSVerify} // #nosec G402
		if err := client.StartTLS(tlsConfig); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	if s.username != "" {
		auth := smtp.PlainAuth("", s.username, s.password, s.host)
		if err := client.Auth(auth); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return client, nil
}

func splitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		normalized := strings.TrimSpace(part)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
