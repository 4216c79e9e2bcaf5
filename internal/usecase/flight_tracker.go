package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/domain/repository"
	"fareguard-service/pkg/logger"
	"fareguard-service/pkg/metrics"

	"github.com/go-playground/validator/v10"
)

// TrackFlightInput is a user's submission of a booked flight
type TrackFlightInput struct {
	UserID           string    `validate:"required"`
	AirlineCode      string    `validate:"required,len=2,alphanum"`
	FlightNumber     string    `validate:"required,max=8"`
	Origin           string    `validate:"required,len=3,alpha"`
	Destination      string    `validate:"required,len=3,alpha,nefield=Origin"`
	DepartureDate    time.Time `validate:"required"`
	OriginalPrice    float64   `validate:"gt=0"`
	ConfirmationCode string    `validate:"required,max=12"`
}

// FlightOverview bundles a flight with its price and request history
type FlightOverview struct {
	Flight       *entity.Flight
	Latest       *entity.PriceObservation
	Lowest       *entity.PriceObservation
	Observations int
	Requests     []*entity.EcreditRequest
}

// FlightTracker registers, edits and deactivates tracked flights
type FlightTracker struct {
	flights  repository.FlightRepository
	airlines repository.AirlineRepository
	ledger   *PriceLedger
	requests repository.EcreditRequestRepository
	validate *validator.Validate
	metrics  *metrics.Metrics
	logger   logger.Logger
	now      func() time.Time
}

// NewFlightTracker creates a new flight tracker
func NewFlightTracker(
	flights repository.FlightRepository,
	airlines repository.AirlineRepository,
	ledger *PriceLedger,
	requests repository.EcreditRequestRepository,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *FlightTracker {
	return &FlightTracker{
		flights:  flights,
		airlines: airlines,
		ledger:   ledger,
		requests: requests,
		validate: validator.New(),
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Track stores the flight and seeds its price history with the original
// price. A failed seed write is reported as a ledger gap; the flight is
// still returned.
func (t *FlightTracker) Track(ctx context.Context, input TrackFlightInput) (*entity.Flight, error) {
	input.AirlineCode = strings.ToUpper(strings.TrimSpace(input.AirlineCode))
	input.Origin = strings.ToUpper(strings.TrimSpace(input.Origin))
	input.Destination = strings.ToUpper(strings.TrimSpace(input.Destination))
	input.FlightNumber = strings.TrimSpace(input.FlightNumber)
	input.ConfirmationCode = strings.ToUpper(strings.TrimSpace(input.ConfirmationCode))

	if err := t.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid flight: %w", err)
	}

	if t.airlines != nil {
		airline, err := t.airlines.GetByCode(ctx, input.AirlineCode)
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("airline %s: %w", input.AirlineCode, entity.ErrUnsupportedAirline)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get airline: %w", err)
		}
		if !airline.Supported {
			return nil, fmt.Errorf("airline %s: %w", input.AirlineCode, entity.ErrUnsupportedAirline)
		}
	}

	now := t.now().UTC()
	flight := &entity.Flight{
		UserID:           input.UserID,
		AirlineCode:      input.AirlineCode,
		FlightNumber:     input.FlightNumber,
		Origin:           input.Origin,
		Destination:      input.Destination,
		DepartureDate:    input.DepartureDate.UTC(),
		OriginalPrice:    input.OriginalPrice,
		ConfirmationCode: input.ConfirmationCode,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := t.flights.Create(ctx, flight); err != nil {
		return nil, fmt.Errorf("failed to create flight: %w", err)
	}

	if _, err := t.ledger.Append(ctx, flight.ID, flight.OriginalPrice, entity.ObservationSourceOriginal); err != nil {
		t.metrics.LedgerGaps.Inc()
		t.logger.Warn("Flight created without seed price observation",
			"flightId", flight.ID,
			"error", err)
	}

	t.logger.Info("Flight tracked",
		"flightId", flight.ID,
		"airline", flight.AirlineCode,
		"flightNumber", flight.FlightNumber,
		"route", flight.Route(),
		"originalPrice", flight.OriginalPrice)

	return flight, nil
}

// Deactivate stops tracking the flight; nothing is deleted
func (t *FlightTracker) Deactivate(ctx context.Context, flightID string) error {
	if err := t.flights.Deactivate(ctx, flightID); err != nil {
		return fmt.Errorf("failed to deactivate flight %s: %w", flightID, err)
	}
	t.logger.Info("Flight deactivated", "flightId", flightID)
	return nil
}

// UpdateOriginalPrice edits the baseline future drops are measured
// against. Requests already raised keep their snapshot.
func (t *FlightTracker) UpdateOriginalPrice(ctx context.Context, flightID string, price float64) error {
	if price <= 0 {
		return fmt.Errorf("original price must be positive, got %.2f", price)
	}
	if err := t.flights.UpdateOriginalPrice(ctx, flightID, price); err != nil {
		return fmt.Errorf("failed to update original price: %w", err)
	}
	t.logger.Info("Flight original price updated", "flightId", flightID, "originalPrice", price)
	return nil
}

// Overview returns the flight with its latest and lowest price and request history
func (t *FlightTracker) Overview(ctx context.Context, flightID string) (*FlightOverview, error) {
	flight, err := t.flights.FindByID(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}

	history, err := t.ledger.All(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}

	lowest, err := t.ledger.Lowest(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lowest price: %w", err)
	}

	requests, err := t.requests.ListByFlight(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ecredit requests: %w", err)
	}

	overview := &FlightOverview{
		Flight:       flight,
		Lowest:       lowest,
		Observations: len(history),
		Requests:     requests,
	}
	if len(history) > 0 {
		overview.Latest = history[len(history)-1]
	}
	return overview, nil
}
