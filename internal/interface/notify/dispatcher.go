package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/domain/repository"
	"fareguard-service/pkg/logger"
	"fareguard-service/pkg/metrics"
	"fareguard-service/templates"
)

// Dispatcher turns ecredit events into stored notifications and fans them
// out to every sender. Delivery failures are logged and counted only.
type Dispatcher struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	senders       []Sender
	metrics       *metrics.Metrics
	logger        logger.Logger
	now           func() time.Time
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	senders []Sender,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		users:         users,
		senders:       senders,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// HandleEvent is the event bus subscriber
func (d *Dispatcher) HandleEvent(ctx context.Context, event entity.Event) {
	request := event.Request
	flight := flightSummary(event)

	var err error
	switch event.Type {
	case entity.EventRequestCreated:
		_, err = d.NotifyPriceDrop(ctx, request.UserID, flight)
	case entity.EventRequestCompleted:
		summary := entity.EcreditSummary{
			RequestID: request.ID,
			Flight:    flight,
			Code:      request.EcreditCode,
		}
		if request.EcreditAmount != nil {
			summary.Amount = *request.EcreditAmount
		}
		if request.ExpiresAt != nil {
			summary.ExpiresAt = *request.ExpiresAt
		}
		_, err = d.NotifyEcreditSuccess(ctx, request.UserID, summary)
	case entity.EventRequestFailed:
		title, message := templates.EcreditFailed(entity.EcreditSummary{
			RequestID:   request.ID,
			Flight:      flight,
			FailureNote: request.Notes,
		})
		_, err = d.NotifySystem(ctx, request.UserID, title, message)
	default:
		return
	}

	if err != nil {
		d.metrics.ErrorsCount.WithLabelValues("notify").Inc()
		d.logger.Error("Failed to notify user",
			"event", event.Type,
			"requestId", request.ID,
			"userId", request.UserID,
			"error", err)
	}
}

// NotifyPriceDrop tells the user about a detected drop
func (d *Dispatcher) NotifyPriceDrop(ctx context.Context, userID string, flight entity.FlightSummary) (*entity.Notification, error) {
	title, message := templates.PriceDrop(flight)
	return d.notify(ctx, userID, entity.NotificationPriceDrop, title, message)
}

// NotifyEcreditSuccess tells the user an ecredit was issued
func (d *Dispatcher) NotifyEcreditSuccess(ctx context.Context, userID string, summary entity.EcreditSummary) (*entity.Notification, error) {
	title, message := templates.EcreditSuccess(summary)
	return d.notify(ctx, userID, entity.NotificationEcreditSuccess, title, message)
}

// NotifySystem stores and sends a free-form system notification
func (d *Dispatcher) NotifySystem(ctx context.Context, userID, title, message string) (*entity.Notification, error) {
	return d.notify(ctx, userID, entity.NotificationSystem, title, message)
}

// MarkRead marks a notification as read
func (d *Dispatcher) MarkRead(ctx context.Context, id string) error {
	return d.notifications.MarkRead(ctx, id)
}

// ListForUser returns the user's notifications, newest first
func (d *Dispatcher) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*entity.Notification, error) {
	return d.notifications.ListByUser(ctx, userID, unreadOnly, 0)
}

func (d *Dispatcher) notify(ctx context.Context, userID string, kind entity.NotificationType, title, message string) (*entity.Notification, error) {
	notification := &entity.Notification{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: d.now().UTC(),
	}
	if err := d.notifications.Save(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}

	d.deliver(ctx, notification)
	return notification, nil
}

func (d *Dispatcher) deliver(ctx context.Context, notification *entity.Notification) {
	if len(d.senders) == 0 {
		return
	}

	user, err := d.users.FindByID(ctx, notification.UserID)
	if err != nil {
		d.logger.Warn("Notification stored but recipient unavailable",
			"notificationId", notification.ID,
			"userId", notification.UserID,
			"error", err)
		return
	}

	for _, sender := range d.senders {
		err := sender.Send(ctx, user, notification)
		switch {
		case errors.Is(err, ErrNoRecipient):
			d.metrics.Notifications.WithLabelValues(sender.Name(), "skipped").Inc()
		case err != nil:
			d.metrics.Notifications.WithLabelValues(sender.Name(), "failure").Inc()
			d.logger.Warn("Notification delivery failed",
				"sender", sender.Name(),
				"notificationId", notification.ID,
				"error", err)
		default:
			d.metrics.Notifications.WithLabelValues(sender.Name(), "success").Inc()
		}
	}
}

func flightSummary(event entity.Event) entity.FlightSummary {
	request := event.Request
	if event.Flight == nil {
		return entity.FlightSummary{
			FlightID:      request.FlightID,
			OriginalPrice: request.OriginalPrice,
			CurrentPrice:  request.NewPrice,
		}
	}
	summary := event.Flight.Summary(request.NewPrice)
	// the request keeps the price it was raised against
	summary.OriginalPrice = request.OriginalPrice
	return summary
}
