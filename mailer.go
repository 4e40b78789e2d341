package accounts

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers account related email. Implementations should treat
// delivery as best effort, callers decide whether a failure is fatal.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, verificationURL string) error
}

// LogMailer writes the message to the configured logger instead of
// delivering it. Useful for development and as a fallback when no SMTP
// host is configured.
type LogMailer struct {
	Logger Logger
}

func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{Logger: logger}
}

func (m *LogMailer) SendVerificationEmail(_ context.Context, to, verificationURL string) error {
	m.Logger.Info("verification email for %s: %s", to, verificationURL)
	return nil
}

// SMTPMailer sends plain text email over a single SMTP connection per
// message. No retries, the caller owns the delivery policy.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Logger   Logger
}

type SMTPOption func(*SMTPMailer)

func WithSMTPAuth(username, password string) SMTPOption {
	return func(m *SMTPMailer) {
		m.Username = username
		m.Password = password
	}
}

func WithSMTPLogger(logger Logger) SMTPOption {
	return func(m *SMTPMailer) {
		if logger != nil {
			m.Logger = logger
		}
	}
}

func NewSMTPMailer(host string, port int, from string, opts ...SMTPOption) *SMTPMailer {
	mailer := &SMTPMailer{
		Host:   host,
		Port:   port,
		From:   from,
		Logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(mailer)
		}
	}

	return mailer
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, verificationURL string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	msg := buildVerificationMessage(m.From, to, verificationURL)

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	if err := smtp.SendMail(addr, auth, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}

	m.Logger.Debug("verification email sent to %s", to)

	return nil
}

func buildVerificationMessage(from, to, verificationURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Verify your email address\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("Welcome!\r\n\r\n")
	b.WriteString("Please confirm your email address by visiting the link below:\r\n\r\n")
	fmt.Fprintf(&b, "%s\r\n\r\n", verificationURL)
	b.WriteString("The link expires in one hour. If you did not create an account you can ignore this message.\r\n")
	return b.String()
}
