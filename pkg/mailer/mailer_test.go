package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureSender struct {
	sent []*gomail.Message
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	c.sent = append(c.sent, m...)
	return nil
}

func TestSendBuildsMessage(t *testing.T) {
	sender := &captureSender{}
	m := NewWithSender(sender, "no-reply@example.com")

	err := m.Send(context.Background(), Message{To: "mentor@example.com", Subject: "New lesson request", Body: "2024-06-03 10:00"})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	assert.Equal(t, []string{"mentor@example.com"}, sender.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"no-reply@example.com"}, sender.sent[0].GetHeader("From"))

	var buf bytes.Buffer
	_, err = sender.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "2024-06-03 10:00")
}

func TestSendRejectsEmptyRecipient(t *testing.T) {
	m := NewWithSender(&captureSender{}, "no-reply@example.com")
	assert.Error(t, m.Send(context.Background(), Message{Subject: "x"}))
}

func TestNewWithoutHostDisablesMail(t *testing.T) {
	assert.Nil(t, New("", 587, "", "", ""))
}
