package repository

import (
	"context"

	"fareguard-service/internal/domain/entity"
)

// NotificationRepository defines the interface for notification storage
type NotificationRepository interface {
	Save(ctx context.Context, notification *entity.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id string) error
}
