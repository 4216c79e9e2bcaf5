package repository

import (
	"context"
	"time"

	"fareguard-service/internal/domain/entity"
)

// EcreditRequestRepository defines the interface for ecredit request storage
type EcreditRequestRepository interface {
	// CreateIfNoneOpen inserts request unless the flight already has a
	// pending or in_progress request, in which case that one is returned
	// with created=false.
	CreateIfNoneOpen(ctx context.Context, request *entity.EcreditRequest) (stored *entity.EcreditRequest, created bool, err error)
	FindByID(ctx context.Context, id string) (*entity.EcreditRequest, error)
	// FindOpenByFlight returns nil, nil when the flight has no unresolved request.
	FindOpenByFlight(ctx context.Context, flightID string) (*entity.EcreditRequest, error)
	// Transition applies update only if the current status is one of from.
	// It returns entity.ErrInvalidTransition when the guard does not match.
	Transition(ctx context.Context, id string, from []entity.EcreditStatus, update entity.EcreditUpdate) (*entity.EcreditRequest, error)
	ListByStatus(ctx context.Context, status entity.EcreditStatus, limit int) ([]*entity.EcreditRequest, error)
	ListStartedBefore(ctx context.Context, status entity.EcreditStatus, before time.Time) ([]*entity.EcreditRequest, error)
	ListByFlight(ctx context.Context, flightID string) ([]*entity.EcreditRequest, error)
}
