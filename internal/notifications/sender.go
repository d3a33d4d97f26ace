package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
)

// SMTPConfig describes the mail relay used for direct alerts.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// EmailAlerter sends direct alerts by e-mail.
// Nil-safe: when not configured, Alert is a no-op.
type EmailAlerter struct {
	cfg    SMTPConfig
	logger *slog.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewEmailAlerter creates an alerter. Returns nil if the host or recipients
// are missing (alerts disabled).
func NewEmailAlerter(cfg SMTPConfig, logger *slog.Logger) *EmailAlerter {
	if cfg.Host == "" || len(cfg.To) == 0 {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailAlerter{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Alert mails the message to every configured recipient.
func (a *EmailAlerter) Alert(ctx context.Context, service, message string) error {
	if a == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("apptwatch <%s>", a.cfg.From)
	mail.To = a.cfg.To
	mail.Subject = fmt.Sprintf("%s appointments", title(service))
	mail.Text = []byte(message)

	var auth smtp.Auth
	if a.cfg.Username != "" {
		auth = smtp.PlainAuth("", a.cfg.Username, a.cfg.Password, a.cfg.Host)
	}

	addr := a.cfg.Host + ":" + strconv.Itoa(a.cfg.Port)
	if err := a.send(mail, addr, auth); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	a.logger.Info("Alert e-mailed", "service", service, "recipients", len(a.cfg.To))
	return nil
}
