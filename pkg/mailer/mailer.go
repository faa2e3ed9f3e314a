package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Message is a plain-text notification email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a fully built gomail message.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends notification emails over SMTP.
type Mailer struct {
	sender Sender
	from   string
}

// New returns an SMTP mailer. It returns nil when host is empty so callers can skip email delivery.
func New(host string, port int, user, password, from string) *Mailer {
	if host == "" {
		return nil
	}
	if from == "" {
		from = user
	}
	return NewWithSender(gomail.NewDialer(host, port, user, password), from)
}

// NewWithSender wires a custom sender.
func NewWithSender(sender Sender, from string) *Mailer {
	return &Mailer{sender: sender, from: from}
}

// Send builds and delivers msg. SMTP dialing is not cancellable; ctx is checked before dialing.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("send mail: empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	if err := m.sender.DialAndSend(gm); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
