package notify

import (
	"context"
	"fmt"

	"fareguard-service/internal/domain/entity"

	"gopkg.in/gomail.v2"
)

// SMTPSender emails notifications through an SMTP relay
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
	}
}

func (s *SMTPSender) Name() string {
	return "smtp"
}

// Send emails the notification to the user's address
func (s *SMTPSender) Send(ctx context.Context, user *entity.User, notification *entity.Notification) error {
	if user == nil || user.Email == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(s.message(user, notification)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *SMTPSender) message(user *entity.User, notification *entity.Notification) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetAddressHeader("To", user.Email, user.Name)
	m.SetHeader("Subject", notification.Title)
	m.SetBody("text/plain", notification.Message)
	return m
}
