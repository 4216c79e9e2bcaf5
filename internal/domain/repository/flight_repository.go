package repository

import (
	"context"

	"fareguard-service/internal/domain/entity"
)

// FlightRepository defines the interface for tracked flight storage
type FlightRepository interface {
	Create(ctx context.Context, flight *entity.Flight) error
	FindByID(ctx context.Context, id string) (*entity.Flight, error)
	ListActive(ctx context.Context) ([]*entity.Flight, error)
	Deactivate(ctx context.Context, id string) error
	UpdateOriginalPrice(ctx context.Context, id string, price float64) error
}
