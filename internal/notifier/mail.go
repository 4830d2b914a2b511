package notifier

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailNotifier sends a confirmation to the registrant's own email address.
// Registrants without an email are skipped.
type MailNotifier struct {
	sender Sender
	from   string
}

func NewMailNotifier(host string, port int, user, password, from string) *MailNotifier {
	return &MailNotifier{
		sender: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func NewMailNotifierWithSender(sender Sender, from string) *MailNotifier {
	return &MailNotifier{sender: sender, from: from}
}

func (n *MailNotifier) NotifyRegistrant(event Event) error {
	email := event.Registrant.Email
	if email == nil || *email == "" {
		return nil
	}

	if err := n.sender.DialAndSend(ConfirmationMessage(n.from, *email, event)); err != nil {
		log.Error().Err(err).Str("to", *email).Msg("Failed to send confirmation mail")
		return fmt.Errorf("send confirmation mail: %w", err)
	}

	return nil
}

func ConfirmationMessage(from, to string, event Event) *gomail.Message {
	subject := "Registration received"
	if event.Updated {
		subject = "Registration updated"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", fmt.Sprintf("Hello %s,\n\nWe have your registration:\n\n%s\n", event.Registrant.FirstName, Summary(event)))
	return m
}
