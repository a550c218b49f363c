package outreach

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitecoat-dvm/outreach-cli/internal/config"
	"github.com/whitecoat-dvm/outreach-cli/internal/model"
	"github.com/whitecoat-dvm/outreach-cli/pkg/sendgrid"
)

// mockSendGrid captures the messages handed to the API client.
type mockSendGrid struct {
	messages []sendgrid.Message
	err      error
}

func (m *mockSendGrid) Send(_ context.Context, msg sendgrid.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func TestEmailSender_Send(t *testing.T) {
	client := &mockSendGrid{}
	sender := NewEmailSender(client, DefaultTemplate(), config.OutreachConfig{
		FromEmail: "partners@whitecoatdvm.com",
		FromName:  "WhiteCoat DVM",
		ReplyTo:   "hello@whitecoatdvm.com",
	})

	err := sender.Send(context.Background(), model.ContactRecord{
		Name:  "Happy Paws",
		Email: "adopt@happypaws.org",
	})
	require.NoError(t, err)

	require.Len(t, client.messages, 1)
	msg := client.messages[0]
	assert.Equal(t, "adopt@happypaws.org", msg.To.Email)
	assert.Equal(t, "Happy Paws", msg.To.Name)
	assert.Equal(t, "partners@whitecoatdvm.com", msg.From.Email)
	assert.Equal(t, "hello@whitecoatdvm.com", msg.ReplyTo.Email)
	assert.Contains(t, msg.Subject, "Happy Paws")
	assert.NotEmpty(t, msg.Text)
	assert.NotEmpty(t, msg.HTML)
}

func TestEmailSender_RejectsMissingEmail(t *testing.T) {
	client := &mockSendGrid{}
	sender := NewEmailSender(client, DefaultTemplate(), config.OutreachConfig{})

	err := sender.Send(context.Background(), model.ContactRecord{Name: "No Email"})
	assert.Error(t, err)
	assert.Empty(t, client.messages)
}

func TestEmailSender_PropagatesClientError(t *testing.T) {
	client := &mockSendGrid{err: assert.AnError}
	sender := NewEmailSender(client, DefaultTemplate(), config.OutreachConfig{})

	err := sender.Send(context.Background(), model.ContactRecord{Name: "A", Email: "a@x.org"})
	assert.Error(t, err)
}
