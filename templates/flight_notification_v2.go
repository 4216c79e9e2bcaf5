package templates

import (
	"fmt"
	"strings"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/pkg/utils"
)

// EcreditSuccess builds the notification for an issued ecredit
func EcreditSuccess(summary entity.EcreditSummary) (title, message string) {
	flight := summary.Flight
	title = fmt.Sprintf("Ecredit issued: %s", utils.FormatPrice(summary.Amount))

	var b strings.Builder
	fmt.Fprintf(&b, "An ecredit of %s was issued for flight %s%s (%s) on %s.\n",
		utils.FormatPrice(summary.Amount), flight.AirlineCode, flight.FlightNumber, flight.Route, flight.DepartureDate)
	fmt.Fprintf(&b, "Ecredit code: %s\n", summary.Code)
	if !summary.ExpiresAt.IsZero() {
		fmt.Fprintf(&b, "Valid until: %s", summary.ExpiresAt.Format(entity.DateLayout))
	}

	return title, strings.TrimRight(b.String(), "\n")
}

// EcreditFailed builds the system notification for a failed request
func EcreditFailed(summary entity.EcreditSummary) (title, message string) {
	flight := summary.Flight
	title = fmt.Sprintf("Ecredit request failed for %s%s", flight.AirlineCode, flight.FlightNumber)

	reason := summary.FailureNote
	if reason == "" {
		reason = "submission failed"
	}
	message = fmt.Sprintf("We could not obtain an ecredit for flight %s%s (%s) on %s: %s.",
		flight.AirlineCode, flight.FlightNumber, flight.Route, flight.DepartureDate, reason)
	return title, message
}
