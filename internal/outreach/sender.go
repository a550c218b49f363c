package outreach

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/whitecoat-dvm/outreach-cli/internal/config"
	"github.com/whitecoat-dvm/outreach-cli/internal/model"
	"github.com/whitecoat-dvm/outreach-cli/pkg/sendgrid"
)

// Sender is the external send capability. A failed send returns an
// error distinguishable from success; timeouts are the sender's
// responsibility and surface as per-contact failures.
type Sender interface {
	Send(ctx context.Context, contact model.ContactRecord) error
}

// EmailSender renders the outreach template and dispatches through
// SendGrid.
type EmailSender struct {
	client   sendgrid.Client
	template *Template
	from     sendgrid.Address
	replyTo  sendgrid.Address
}

// NewEmailSender wires the template and identity config to a SendGrid
// client.
func NewEmailSender(client sendgrid.Client, tmpl *Template, cfg config.OutreachConfig) *EmailSender {
	return &EmailSender{
		client:   client,
		template: tmpl,
		from:     sendgrid.Address{Email: cfg.FromEmail, Name: cfg.FromName},
		replyTo:  sendgrid.Address{Email: cfg.ReplyTo},
	}
}

func (s *EmailSender) Send(ctx context.Context, contact model.ContactRecord) error {
	if contact.Email == "" {
		return eris.Errorf("send: contact %q has no email", contact.Name)
	}

	email, err := s.template.Render(contact)
	if err != nil {
		return eris.Wrapf(err, "send: render for %s", contact.Email)
	}

	msg := sendgrid.Message{
		To:      sendgrid.Address{Email: contact.Email, Name: contact.Name},
		From:    s.from,
		ReplyTo: s.replyTo,
		Subject: email.Subject,
		Text:    email.Text,
		HTML:    email.HTML,
	}
	return s.client.Send(ctx, msg)
}
