// Package email sends owner and customer notices over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/licensegate/licensegate/internal/domain/notification"
	sharedConfig "github.com/licensegate/licensegate/internal/shared/config"
	"github.com/licensegate/licensegate/internal/shared/markdown"
)

var ErrNoRecipient = errors.New("email recipient is required")

var bodyRenderer = markdown.NewRenderer()

// sender is the part of gomail.Dialer the service uses.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPEmailService struct {
	config sharedConfig.EmailConfig
	dialer sender
}

func NewSMTPEmailService(config sharedConfig.EmailConfig) *SMTPEmailService {
	return &SMTPEmailService{
		config: config,
		dialer: gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUser, config.SMTPPassword),
	}
}

func (s *SMTPEmailService) Name() string { return "email" }

func (s *SMTPEmailService) Enabled() bool {
	return s.config.Enabled()
}

// Send delivers msg to msg.To. gomail has no context support, so ctx is
// only checked before dialing.
func (s *SMTPEmailService) Send(ctx context.Context, msg notification.Message) error {
	if !s.Enabled() {
		return nil
	}
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	htmlBody, err := renderHTML(msg)
	if err != nil {
		return err
	}
	return s.sendEmail(msg.To, msg.Subject, htmlBody, msg.Body)
}

func (s *SMTPEmailService) sendEmail(to, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromAddress, s.config.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// renderHTML treats the body as Markdown.
func renderHTML(msg notification.Message) (string, error) {
	body, err := bodyRenderer.ToHTML(msg.Body)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<html><body><h2>%s</h2>%s</body></html>", html.EscapeString(msg.Subject), body), nil
}

var _ notification.Notifier = (*SMTPEmailService)(nil)
