package templates

import (
	"fmt"
	"strings"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/pkg/utils"
)

// PriceDrop builds the notification for a detected fare drop
func PriceDrop(flight entity.FlightSummary) (title, message string) {
	difference := utils.RoundCents(flight.OriginalPrice - flight.CurrentPrice)
	title = fmt.Sprintf("Price drop on %s%s %s", flight.AirlineCode, flight.FlightNumber, flight.Route)

	var b strings.Builder
	fmt.Fprintf(&b, "Good news! The fare for your flight %s%s (%s) on %s dropped.\n",
		flight.AirlineCode, flight.FlightNumber, flight.Route, flight.DepartureDate)
	fmt.Fprintf(&b, "You paid %s; it now costs %s, a difference of %s.\n",
		utils.FormatPrice(flight.OriginalPrice),
		utils.FormatPrice(flight.CurrentPrice),
		utils.FormatPrice(difference))
	if flight.ConfirmationCode != "" {
		fmt.Fprintf(&b, "Confirmation: %s\n", flight.ConfirmationCode)
	}
	b.WriteString("We are requesting an ecredit for the difference on your behalf.")

	return title, b.String()
}
