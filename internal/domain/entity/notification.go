package entity

import "time"

// NotificationType classifies a user notification
type NotificationType string

const (
	NotificationPriceDrop     NotificationType = "price_drop"
	NotificationEcreditSuccess NotificationType = "ecredit_success"
	NotificationSystem        NotificationType = "system"
)

// Notification is a message shown to a user; only Read changes after creation
type Notification struct {
	ID        string           `json:"id" bson:"_id,omitempty"`
	UserID    string           `json:"userId" bson:"userId"`
	Type      NotificationType `json:"type" bson:"type"`
	Title     string           `json:"title" bson:"title"`
	Message   string           `json:"message" bson:"message"`
	Read      bool             `json:"read" bson:"read"`
	CreatedAt time.Time        `json:"createdAt" bson:"createdAt"`
}

// FlightSummary is the flight view carried by price drop notifications
type FlightSummary struct {
	FlightID         string
	AirlineCode      string
	FlightNumber     string
	Route            string
	DepartureDate    string
	ConfirmationCode string
	OriginalPrice    float64
	CurrentPrice     float64
}

// EcreditSummary is the request view carried by ecredit notifications
type EcreditSummary struct {
	RequestID   string
	Flight      FlightSummary
	Amount      float64
	Code        string
	ExpiresAt   time.Time
	FailureNote string
}
