package repository

import (
	"context"

	"fareguard-service/internal/domain/entity"
)

// PriceObservationRepository is the append-only price history store.
// Latest and Lowest return nil, nil when the flight has no observations.
type PriceObservationRepository interface {
	Append(ctx context.Context, observation *entity.PriceObservation) error
	Latest(ctx context.Context, flightID string) (*entity.PriceObservation, error)
	Lowest(ctx context.Context, flightID string) (*entity.PriceObservation, error)
	ListByFlight(ctx context.Context, flightID string) ([]*entity.PriceObservation, error)
}
