package email

import (
	"context"
	"fmt"

	"github.com/NiklasMM/ebk-bot/internal/config"

	"gopkg.in/gomail.v2"
)

// Sender delivers notification texts by mail; the destination is the
// recipient address.
type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg config.Email) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *Sender) Send(_ context.Context, destination, text string) error {
	const op = "notify.email.Send"

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", destination)
	m.SetHeader("Subject", "New Kleinanzeigen listing")
	m.SetBody("text/plain", text)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
