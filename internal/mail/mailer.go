// Package mail provides the outbound email capability. The rest of the
// service only sees the Sender interface; delivery, retries and rate limits
// are the transport's problem.
package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Realwahba/support-tickets/internal/config"
)

// Sender delivers a single plain-text email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type sendGridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

// NewSendGridSender builds a Sender backed by the SendGrid API.
func NewSendGridSender(cfg config.MailerConfig) (Sender, error) {
	if cfg.SendGridAPIKey == "" || cfg.FromEmail == "" {
		return nil, fmt.Errorf("incomplete mailer config")
	}
	return &sendGridSender{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
	}, nil
}

func (s *sendGridSender) Send(ctx context.Context, to, subject, body string) error {
	msg := sgmail.NewSingleEmailPlainText(s.from, subject, sgmail.NewEmail("", to), body)
	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
