package entity

import "time"

// EventType names an ecredit request transition
type EventType string

const (
	EventRequestCreated   EventType = "request_created"
	EventRequestStarted   EventType = "request_started"
	EventRequestCompleted EventType = "request_completed"
	EventRequestFailed    EventType = "request_failed"
)

// Event is emitted by the request manager after every successful transition
type Event struct {
	Type       EventType
	Request    EcreditRequest
	Flight     *Flight // may be nil when the flight could not be loaded
	OccurredAt time.Time
}
