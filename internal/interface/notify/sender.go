package notify

import (
	"context"
	"errors"

	"fareguard-service/internal/domain/entity"
)

// ErrNoRecipient is returned by a sender when the user has no address for it
var ErrNoRecipient = errors.New("no recipient address")

// Sender delivers a stored notification over one medium
type Sender interface {
	Name() string
	Send(ctx context.Context, user *entity.User, notification *entity.Notification) error
}
