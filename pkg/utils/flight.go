package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NormalizeFlightNumber strips whitespace, an airline prefix and leading
// zeros so "WN 0123", "wn123" and "123" compare equal for airline WN.
func NormalizeFlightNumber(airlineCode, flightNumber string) string {
	n := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(flightNumber), " ", ""))
	n = strings.TrimPrefix(n, strings.ToUpper(strings.TrimSpace(airlineCode)))
	n = strings.TrimLeft(n, "0")
	return n
}

// SameFlight reports whether two airline/flight number pairs name the same flight
func SameFlight(airlineA, numberA, airlineB, numberB string) bool {
	if !strings.EqualFold(strings.TrimSpace(airlineA), strings.TrimSpace(airlineB)) {
		return false
	}
	a := NormalizeFlightNumber(airlineA, numberA)
	return a != "" && a == NormalizeFlightNumber(airlineB, numberB)
}

// NewCreditCode generates an airline-prefixed ecredit code like "WN-3F9A0C11D2"
func NewCreditCode(airlineCode string) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return strings.ToUpper(airlineCode) + "-" + raw[:10]
}
