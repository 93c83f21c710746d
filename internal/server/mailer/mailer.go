// Package mailer delivers the account mails: the address-verification link
// after sign-up and the password-reset link.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/dmitrijs2005/lorekeeper/internal/logging"
)

type Mailer interface {
	SendVerification(ctx context.Context, to, token string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
	// BaseURL is the public address links in the mail point at.
	BaseURL string
}

// SMTPMailer sends real mail over authenticated SMTP.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendVerification(ctx context.Context, to, token string) error {
	body := fmt.Sprintf("Welcome to Lorekeeper!<br><br>Confirm your address: %s/verify-email?token=%s", m.cfg.BaseURL, token)
	return m.send(to, "Verify your email", body)
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	body := fmt.Sprintf("A password reset was requested for this address.<br><br>Reset it here: %s/reset-password?token=%s<br><br>If this wasn't you, you can ignore this mail.", m.cfg.BaseURL, token)
	return m.send(to, "Reset your password", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{to}
	e.Subject = subject
	e.HTML = []byte(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)
	return e.Send(addr, auth)
}

// LogMailer writes mails to the log instead of sending them. Used in
// development when no SMTP host is configured.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerification(ctx context.Context, to, token string) error {
	m.logger.Info(ctx, "verification mail", "to", to, "token", token)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	m.logger.Info(ctx, "password reset mail", "to", to, "token", token)
	return nil
}
