package entity

import "time"

// Itinerary identifies a single flight for fare lookups
type Itinerary struct {
	AirlineCode  string
	FlightNumber string
	Origin       string
	Destination  string
	Date         time.Time
}

// FareQuote is a current price returned by a fare source
type FareQuote struct {
	Price      float64
	Source     string
	ObservedAt time.Time
}
