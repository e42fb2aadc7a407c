package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer sends plain-text mail to a single recipient.
type Mailer interface {
	Send(to, subject, body string) error
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg Config) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

type noopMailer struct{}

// NewNoopMailer returns a mailer that silently drops everything; used when
// SMTP is not configured.
func NewNoopMailer() Mailer { return noopMailer{} }

func (noopMailer) Send(string, string, string) error { return nil }
