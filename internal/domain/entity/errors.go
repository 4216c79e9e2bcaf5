package entity

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrNonPositiveDifference = errors.New("price difference must be positive")
	ErrInvalidTransition     = errors.New("invalid ecredit status transition")
	ErrUnsupportedAirline    = errors.New("unsupported airline")
	ErrMissingCredentials    = errors.New("missing credentials")
	ErrFareUnavailable       = errors.New("fare unavailable")
)
