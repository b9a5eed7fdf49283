package service

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"studentreg/pkg/config"
)

// ConfirmationEmail carries the data rendered into the registration
// confirmation message.
type ConfirmationEmail struct {
	To             string
	StudentName    string
	StudentClass   string
	RegistrationID string
}

// MailService sends registration confirmations over SMTP. When no SMTP
// host is configured it logs the rendered message instead, which is the
// development mode.
type MailService struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewMailService constructs a MailService.
func NewMailService(cfg config.SMTPConfig, logger *zap.Logger) *MailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailService{cfg: cfg, logger: logger}
}

// SendConfirmation delivers the confirmation email. Errors are returned
// to the caller, which treats them as non-fatal to the registration.
func (s *MailService) SendConfirmation(ctx context.Context, email ConfirmationEmail) error {
	subject := fmt.Sprintf("Registration Confirmation - ID: %s", email.RegistrationID)
	body := renderConfirmationBody(email)

	if s.cfg.Host == "" {
		s.logger.Info("confirmation email (console mode)",
			zap.String("to", email.To),
			zap.String("subject", subject),
			zap.String("body", body),
		)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + email.To,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{email.To}, []byte(msg)); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}

func renderConfirmationBody(email ConfirmationEmail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", email.StudentName)
	b.WriteString("Your registration has been completed successfully.\n\n")
	fmt.Fprintf(&b, "Registration ID: %s\n", email.RegistrationID)
	if email.StudentClass != "" {
		fmt.Fprintf(&b, "Class: %s\n", email.StudentClass)
	}
	b.WriteString("\nThank you!")
	return b.String()
}
