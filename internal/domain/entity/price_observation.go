package entity

import "time"

// ObservationSourceOriginal marks the seed entry written when a flight is tracked
const ObservationSourceOriginal = "original"

// PriceObservation is one append-only entry of a flight's price history
type PriceObservation struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	FlightID   string    `json:"flightId" bson:"flightId"`
	Price      float64   `json:"price" bson:"price"`
	Source     string    `json:"source" bson:"source"`
	ObservedAt time.Time `json:"observedAt" bson:"observedAt"`
}
