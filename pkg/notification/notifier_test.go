package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockNotifier_RendersConfirmation(t *testing.T) {
	m := &MockNotifier{}
	err := m.Send(NotificationData{
		To: "anna@example.fi",
		Data: map[string]string{
			"Firstname": "Anna",
			"Link":      "http://localhost:4000/auth/callback?token=abc&x=1",
		},
	}, ConfirmationTemplate)
	require.NoError(t, err)

	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "anna@example.fi", sent[0].To)
	assert.Equal(t, ConfirmationTemplate.Subject, sent[0].Subject)
	assert.Contains(t, sent[0].Text, "Hei Anna")
	assert.Contains(t, sent[0].Text, "token=abc&x=1")
	// the HTML body is escaped
	assert.Contains(t, sent[0].Html, "token=abc&amp;x=1")
}

func TestMockNotifier_TemplateError(t *testing.T) {
	m := &MockNotifier{}
	err := m.Send(NotificationData{To: "a@b.fi"}, NoticeTemplate{Text: "{{.Broken"})
	assert.Error(t, err)
	assert.Empty(t, m.Sent())
}

func TestEmailNotifier_RequiresRecipient(t *testing.T) {
	n, err := NewEmailNotifier(SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@example.com"})
	require.NoError(t, err)
	assert.Error(t, n.Send(NotificationData{}, ConfirmationTemplate))
}
