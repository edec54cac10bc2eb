// Package mailer sends account notifications through SendGrid.
package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/sidhlee/task-manager-api/internal/logging"
	"github.com/sidhlee/task-manager-api/internal/server/config"
)

const senderName = "Taskapp"

// Mailer sends account notifications.
type Mailer interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendGoodbye(ctx context.Context, email, name string) error
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// newSendClient is a seam for tests.
var newSendClient = func(apiKey string) sendClient {
	return sendgrid.NewSendClient(apiKey)
}

// SendGridMailer delivers plain-text welcome and goodbye messages.
type SendGridMailer struct {
	client sendClient
	from   *mail.Email
}

func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		client: newSendClient(apiKey),
		from:   mail.NewEmail(senderName, from),
	}
}

func (m *SendGridMailer) SendWelcome(ctx context.Context, email, name string) error {
	return m.send(ctx, email, name, welcomeSubject, fmt.Sprintf(welcomeBody, name))
}

func (m *SendGridMailer) SendGoodbye(ctx context.Context, email, name string) error {
	return m.send(ctx, email, name, fmt.Sprintf(goodbyeSubject, name), fmt.Sprintf(goodbyeBody, name))
}

func (m *SendGridMailer) send(ctx context.Context, email, name, subject, body string) error {
	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail(name, email), body, "")
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid error: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// NopMailer logs instead of sending. It is used when no API key is set.
type NopMailer struct {
	log logging.Logger
}

func NewNopMailer(log logging.Logger) *NopMailer {
	return &NopMailer{log: log.With("module", "mailer")}
}

func (m *NopMailer) SendWelcome(ctx context.Context, email, _ string) error {
	m.log.Debug(ctx, "mail disabled, skipping welcome", "to", email)
	return nil
}

func (m *NopMailer) SendGoodbye(ctx context.Context, email, _ string) error {
	m.log.Debug(ctx, "mail disabled, skipping goodbye", "to", email)
	return nil
}

// New picks the SendGrid mailer when an API key is configured.
func New(cfg *config.Config, log logging.Logger) Mailer {
	if cfg.SendGridAPIKey == "" {
		return NewNopMailer(log)
	}
	return NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom)
}
