package mailer

import (
	"context"
	"fmt"

	"contacts_api/internal/models"

	"gopkg.in/gomail.v2"
)

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username when empty.
	From string

	dial func(m *Mailer, msg *gomail.Message) error
}

func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.from())
	msg.SetHeader("Subject", subject)

	msg.SetBody("text/html", htmlBody)

	dial := m.dial
	if dial == nil {
		dial = dialAndSend
	}

	return dial(m, msg)
}

// SendMessage lets the API deliver mail directly when the smtp transport
// is configured.
func (m *Mailer) SendMessage(_ context.Context, msg models.Message) error {
	const op = "mailer.SendMessage"

	if err := m.Send(msg.To, msg.Subject, msg.HTML); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (m *Mailer) from() string {
	if m.From != "" {
		return m.From
	}
	return m.Username
}

func dialAndSend(m *Mailer, msg *gomail.Message) error {
	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return dialer.DialAndSend(msg)
}
