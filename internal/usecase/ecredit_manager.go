package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/domain/repository"
	"fareguard-service/pkg/logger"
	"fareguard-service/pkg/metrics"
	"fareguard-service/pkg/utils"
)

// EcreditManager owns the ecredit request lifecycle and is the only
// writer of a request's status.
type EcreditManager struct {
	requests  repository.EcreditRequestRepository
	flights   repository.FlightRepository
	users     repository.UserRepository
	submitter AirlineSubmitter
	events    EventPublisher
	metrics   *metrics.Metrics
	logger    logger.Logger
	now       func() time.Time
}

// NewEcreditManager creates a new ecredit request manager
func NewEcreditManager(
	requests repository.EcreditRequestRepository,
	flights repository.FlightRepository,
	users repository.UserRepository,
	submitter AirlineSubmitter,
	events EventPublisher,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *EcreditManager {
	return &EcreditManager{
		requests:  requests,
		flights:   flights,
		users:     users,
		submitter: submitter,
		events:    events,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Create opens a pending request for the candidate drop. If the flight
// already has a pending or in_progress request that one is returned with
// created=false. A non-positive difference creates nothing.
func (m *EcreditManager) Create(ctx context.Context, candidate entity.EcreditCandidate) (*entity.EcreditRequest, bool, error) {
	difference := utils.RoundCents(candidate.OriginalPrice - candidate.NewPrice)
	if difference <= 0 {
		return nil, false, fmt.Errorf("flight %s: %w", candidate.FlightID, entity.ErrNonPositiveDifference)
	}

	now := m.now().UTC()
	request := &entity.EcreditRequest{
		FlightID:        candidate.FlightID,
		UserID:          candidate.UserID,
		OriginalPrice:   candidate.OriginalPrice,
		NewPrice:        candidate.NewPrice,
		PriceDifference: difference,
		Status:          entity.EcreditPending,
		RequestedAt:     now,
		UpdatedAt:       now,
	}

	stored, created, err := m.requests.CreateIfNoneOpen(ctx, request)
	if err != nil {
		m.metrics.ErrorsCount.WithLabelValues("ecredit_create").Inc()
		return nil, false, fmt.Errorf("failed to create ecredit request: %w", err)
	}

	if !created {
		m.logger.Debug("Ecredit request already open for flight",
			"flightId", candidate.FlightID,
			"requestId", stored.ID,
			"status", stored.Status)
		return stored, false, nil
	}

	m.metrics.EcreditTransitions.WithLabelValues(string(entity.EcreditPending)).Inc()
	m.logger.Info("Ecredit request created",
		"flightId", stored.FlightID,
		"requestId", stored.ID,
		"originalPrice", stored.OriginalPrice,
		"newPrice", stored.NewPrice,
		"priceDifference", stored.PriceDifference)
	m.publish(ctx, entity.EventRequestCreated, stored, nil)

	return stored, true, nil
}

// Start claims a pending request for submission. It fails with
// entity.ErrInvalidTransition when another worker already claimed it.
func (m *EcreditManager) Start(ctx context.Context, id string) (*entity.EcreditRequest, error) {
	now := m.now().UTC()
	return m.transition(ctx, id, entity.EcreditUpdate{
		Status:            entity.EcreditInProgress,
		StartedAt:         &now,
		IncrementAttempts: true,
		UpdatedAt:         now,
	}, nil)
}

// Complete records the issued credit on an in_progress request
func (m *EcreditManager) Complete(ctx context.Context, id string, credit *entity.Credit, flight *entity.Flight) (*entity.EcreditRequest, error) {
	now := m.now().UTC()
	amount := utils.RoundCents(credit.Amount)
	expiresAt := credit.ExpiresAt.UTC()
	return m.transition(ctx, id, entity.EcreditUpdate{
		Status:        entity.EcreditCompleted,
		CompletedAt:   &now,
		EcreditAmount: &amount,
		EcreditCode:   credit.Code,
		ExpiresAt:     &expiresAt,
		Channel:       credit.Channel,
		UpdatedAt:     now,
	}, flight)
}

// Fail moves a pending or in_progress request to failed, keeping reason
func (m *EcreditManager) Fail(ctx context.Context, id, reason, channel string, flight *entity.Flight) (*entity.EcreditRequest, error) {
	if reason == "" {
		reason = "submission failed"
	}
	now := m.now().UTC()
	return m.transition(ctx, id, entity.EcreditUpdate{
		Status:    entity.EcreditFailed,
		Notes:     reason,
		Channel:   channel,
		UpdatedAt: now,
	}, flight)
}

// Process claims a pending request and drives it through the airline
// submission protocol to completed or failed. A request another worker
// already claimed returns entity.ErrInvalidTransition untouched.
func (m *EcreditManager) Process(ctx context.Context, request *entity.EcreditRequest) (*entity.EcreditRequest, error) {
	started, err := m.Start(ctx, request.ID)
	if err != nil {
		return nil, err
	}

	log := m.logger.With("requestId", started.ID, "flightId", started.FlightID)

	flight, err := m.flights.FindByID(ctx, started.FlightID)
	if errors.Is(err, entity.ErrNotFound) {
		return m.Fail(ctx, started.ID, "flight not found", "", nil)
	}
	if err != nil {
		// left in_progress; ResetStale returns it to pending
		m.metrics.ErrorsCount.WithLabelValues("ecredit_load_flight").Inc()
		return started, fmt.Errorf("failed to load flight: %w", err)
	}

	user, err := m.users.FindByID(ctx, started.UserID)
	if errors.Is(err, entity.ErrNotFound) {
		return m.Fail(ctx, started.ID, "user not found", "", flight)
	}
	if err != nil {
		m.metrics.ErrorsCount.WithLabelValues("ecredit_load_user").Inc()
		return started, fmt.Errorf("failed to load user: %w", err)
	}

	credential, err := m.users.FindCredential(ctx, user.ID, flight.AirlineCode)
	if err != nil {
		// submission proceeds; the automation channel reports missing credentials
		log.Warn("Failed to load linked airline credentials", "error", err)
		credential = nil
	}

	log.Info("Submitting ecredit request", "airline", flight.AirlineCode, "attempt", started.Attempts)
	credit, err := m.submitter.Submit(ctx, entity.SubmissionInput{
		User:       user,
		Flight:     flight,
		Request:    started,
		Credential: credential,
	})
	if err != nil {
		log.Warn("Ecredit submission failed", "error", err)
		return m.Fail(ctx, started.ID, err.Error(), channelOf(err), flight)
	}

	return m.Complete(ctx, started.ID, credit, flight)
}

// ResetStale returns requests stuck in_progress since before olderThan to
// pending so the next reconciliation pass retries them.
func (m *EcreditManager) ResetStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := m.now().UTC().Add(-olderThan)
	stale, err := m.requests.ListStartedBefore(ctx, entity.EcreditInProgress, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale ecredit requests: %w", err)
	}

	reset := 0
	for _, request := range stale {
		_, err := m.requests.Transition(ctx, request.ID,
			[]entity.EcreditStatus{entity.EcreditInProgress},
			entity.EcreditUpdate{Status: entity.EcreditPending, UpdatedAt: m.now().UTC()})
		if err != nil {
			m.logger.Warn("Failed to reset stale ecredit request", "requestId", request.ID, "error", err)
			continue
		}
		reset++
	}

	if reset > 0 {
		m.logger.Info("Reset stale ecredit requests", "count", reset)
	}
	return reset, nil
}

// ListPending returns pending requests, oldest first
func (m *EcreditManager) ListPending(ctx context.Context, limit int) ([]*entity.EcreditRequest, error) {
	return m.requests.ListByStatus(ctx, entity.EcreditPending, limit)
}

// History returns every request raised for the flight, newest first
func (m *EcreditManager) History(ctx context.Context, flightID string) ([]*entity.EcreditRequest, error) {
	return m.requests.ListByFlight(ctx, flightID)
}

func (m *EcreditManager) transition(ctx context.Context, id string, update entity.EcreditUpdate, flight *entity.Flight) (*entity.EcreditRequest, error) {
	updated, err := m.requests.Transition(ctx, id, entity.SourcesOf(update.Status), update)
	if err != nil {
		if !errors.Is(err, entity.ErrInvalidTransition) {
			m.metrics.ErrorsCount.WithLabelValues("ecredit_transition").Inc()
		}
		return nil, fmt.Errorf("request %s -> %s: %w", id, update.Status, err)
	}

	m.metrics.EcreditTransitions.WithLabelValues(string(updated.Status)).Inc()
	m.logger.Info("Ecredit request transitioned",
		"requestId", updated.ID,
		"flightId", updated.FlightID,
		"status", updated.Status,
		"channel", updated.Channel,
		"notes", updated.Notes)

	switch updated.Status {
	case entity.EcreditInProgress:
		m.publish(ctx, entity.EventRequestStarted, updated, flight)
	case entity.EcreditCompleted:
		m.publish(ctx, entity.EventRequestCompleted, updated, flight)
	case entity.EcreditFailed:
		m.publish(ctx, entity.EventRequestFailed, updated, flight)
	}
	return updated, nil
}

func (m *EcreditManager) publish(ctx context.Context, eventType entity.EventType, request *entity.EcreditRequest, flight *entity.Flight) {
	if m.events == nil {
		return
	}
	if flight == nil {
		if f, err := m.flights.FindByID(ctx, request.FlightID); err == nil {
			flight = f
		}
	}
	m.events.Publish(entity.Event{
		Type:       eventType,
		Request:    *request,
		Flight:     flight,
		OccurredAt: m.now().UTC(),
	})
}

// channeled is implemented by submission errors that know which channel produced them
type channeled interface {
	ChannelName() string
}

func channelOf(err error) string {
	var c channeled
	if errors.As(err, &c) {
		return c.ChannelName()
	}
	return ""
}
