package repository

import (
	"context"

	"fareguard-service/internal/domain/entity"
)

// UserRepository defines the interface for user and linked account lookups
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	// FindCredential returns nil, nil when no account is linked for the airline.
	FindCredential(ctx context.Context, userID, airlineCode string) (*entity.AirlineCredential, error)
}
