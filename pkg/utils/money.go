package utils

import (
	"fmt"
	"math"
)

// RoundCents rounds an amount to two decimal places
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// FormatPrice renders an amount as "$123.45"
func FormatPrice(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
