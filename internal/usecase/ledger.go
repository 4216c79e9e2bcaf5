package usecase

import (
	"context"
	"fmt"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/domain/repository"
	"fareguard-service/pkg/logger"
	"fareguard-service/pkg/metrics"
)

// PriceLedger is the append-only price history of tracked flights
type PriceLedger struct {
	observations repository.PriceObservationRepository
	metrics      *metrics.Metrics
	logger       logger.Logger
	now          func() time.Time
}

// NewPriceLedger creates a new price ledger
func NewPriceLedger(observations repository.PriceObservationRepository, metrics *metrics.Metrics, logger logger.Logger) *PriceLedger {
	return &PriceLedger{
		observations: observations,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Append records a price for the flight
func (l *PriceLedger) Append(ctx context.Context, flightID string, price float64, source string) (*entity.PriceObservation, error) {
	observation := &entity.PriceObservation{
		FlightID:   flightID,
		Price:      price,
		Source:     source,
		ObservedAt: l.now().UTC(),
	}
	if err := l.observations.Append(ctx, observation); err != nil {
		l.metrics.ErrorsCount.WithLabelValues("ledger_append").Inc()
		return nil, fmt.Errorf("failed to append price observation: %w", err)
	}
	l.metrics.PriceObservations.Inc()
	return observation, nil
}

// Latest returns the most recent observation, or nil when the history is empty
func (l *PriceLedger) Latest(ctx context.Context, flightID string) (*entity.PriceObservation, error) {
	return l.observations.Latest(ctx, flightID)
}

// Lowest returns the cheapest observation, or nil when the history is empty
func (l *PriceLedger) Lowest(ctx context.Context, flightID string) (*entity.PriceObservation, error) {
	return l.observations.Lowest(ctx, flightID)
}

// All returns the full history oldest first
func (l *PriceLedger) All(ctx context.Context, flightID string) ([]*entity.PriceObservation, error) {
	return l.observations.ListByFlight(ctx, flightID)
}
