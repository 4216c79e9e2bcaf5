// internal/domain/entity/flight.go
package entity

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for departure dates
const DateLayout = "2006-01-02"

// Flight is a booked flight whose fare is being tracked
type Flight struct {
	ID               string    `json:"id" bson:"_id,omitempty"`
	UserID           string    `json:"userId" bson:"userId"`
	AirlineCode      string    `json:"airlineCode" bson:"airlineCode"`
	FlightNumber     string    `json:"flightNumber" bson:"flightNumber"`
	Origin           string    `json:"origin" bson:"origin"`
	Destination      string    `json:"destination" bson:"destination"`
	DepartureDate    time.Time `json:"departureDate" bson:"departureDate"`
	OriginalPrice    float64   `json:"originalPrice" bson:"originalPrice"` // baseline every drop is measured against
	ConfirmationCode string    `json:"confirmationCode" bson:"confirmationCode"`
	Active           bool      `json:"active" bson:"active"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Itinerary returns the descriptor used to look up the flight's current fare
func (f *Flight) Itinerary() Itinerary {
	return Itinerary{
		AirlineCode:  f.AirlineCode,
		FlightNumber: f.FlightNumber,
		Origin:       f.Origin,
		Destination:  f.Destination,
		Date:         f.DepartureDate,
	}
}

// Route formats origin and destination as "DAL-HOU"
func (f *Flight) Route() string {
	return fmt.Sprintf("%s-%s", f.Origin, f.Destination)
}

// Departed reports whether the departure date is before the day of now
func (f *Flight) Departed(now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return f.DepartureDate.Before(today)
}

// Summary builds the notification view of the flight
func (f *Flight) Summary(currentPrice float64) FlightSummary {
	return FlightSummary{
		FlightID:         f.ID,
		AirlineCode:      f.AirlineCode,
		FlightNumber:     f.FlightNumber,
		Route:            f.Route(),
		DepartureDate:    f.DepartureDate.Format(DateLayout),
		ConfirmationCode: f.ConfirmationCode,
		OriginalPrice:    f.OriginalPrice,
		CurrentPrice:     currentPrice,
	}
}
