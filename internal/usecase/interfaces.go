package usecase

import (
	"context"
	"time"

	"fareguard-service/internal/domain/entity"
)

// FareLookup returns the current fare for an itinerary, or false when no
// source could provide one.
type FareLookup interface {
	Lookup(ctx context.Context, itinerary entity.Itinerary) (*entity.FareQuote, bool)
}

// AirlineHandler files ecredit requests with one airline
type AirlineHandler interface {
	// Code is the IATA code the handler serves
	Code() string

	// Submit files the request and returns the issued credit. A failed
	// submission returns the reason of the last channel tried.
	Submit(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error)
}

// AirlineSubmitter routes a submission to the handler for the flight's airline
type AirlineSubmitter interface {
	// Register registers a handler for its airline code
	Register(handler AirlineHandler)

	// Submit dispatches by input.Flight.AirlineCode
	Submit(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error)
}

// EventPublisher receives ecredit request transitions
type EventPublisher interface {
	Publish(event entity.Event)
}

// Locker guards one flight's pipeline across overlapping passes and replicas
type Locker interface {
	// TryLock returns ok=false without blocking when key is already held
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}
