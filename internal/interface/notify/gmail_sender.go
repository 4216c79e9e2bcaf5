package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/pkg/logger"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailSender emails notifications through the Gmail API
type GmailSender struct {
	gmailService *gmail.Service
	from         string
	logger       logger.Logger
}

// NewGmailSender creates a new Gmail sender. Pass option.WithTokenSource
// with a send-scope token source.
func NewGmailSender(ctx context.Context, from string, logger logger.Logger, opts ...option.ClientOption) (*GmailSender, error) {
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GmailSender{
		gmailService: service,
		from:         from,
		logger:       logger,
	}, nil
}

func (s *GmailSender) Name() string {
	return "gmail"
}

// Send sends the notification as a plain text email from the authorized account
func (s *GmailSender) Send(ctx context.Context, user *entity.User, notification *entity.Notification) error {
	if user == nil || user.Email == "" {
		return ErrNoRecipient
	}

	message := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(rawMessage(s.from, user.Email, notification))),
	}

	sent, err := s.gmailService.Users.Messages.Send("me", message).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to send gmail message: %w", err)
	}

	s.logger.Debug("Gmail notification sent",
		"messageId", sent.Id,
		"notificationId", notification.ID)
	return nil
}

func rawMessage(from, to string, notification *entity.Notification) string {
	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", notification.Title))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(notification.Message)
	return b.String()
}
