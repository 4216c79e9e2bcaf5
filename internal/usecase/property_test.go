package usecase

import (
	"context"
	"testing"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/pkg/utils"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// A drop is reported exactly when the rounded difference is positive, and
// the candidate carries that difference.
func TestDropDetector_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)
	detector := NewDropDetector(0)

	properties.Property("drop iff rounded difference is positive", prop.ForAll(
		func(original, price float64) bool {
			flight := &entity.Flight{ID: "f1", OriginalPrice: original}
			got := detector.Evaluate(flight, &entity.PriceObservation{Price: price})

			difference := utils.RoundCents(original - price)
			want := price > 0 && price < original && difference > 0
			if got.IsDrop != want {
				return false
			}
			if !want {
				return got.Candidate == nil
			}
			return got.Candidate.PriceDifference == difference
		},
		gen.Float64Range(1, 2000),
		gen.Float64Range(0, 2000),
	))

	properties.TestingRun(t)
}

// However prices move, a flight never has more than one open request.
func TestOneOpenRequest_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("at most one open request per flight", prop.ForAll(
		func(prices []float64) bool {
			h := newHarness(t, harnessOptions{})
			flight := h.track(t, "1234", 300)
			ctx := context.Background()

			for _, price := range prices {
				h.fares.set("1234", price)
				if _, err := h.checker.CheckPrices(ctx); err != nil {
					return false
				}
			}

			requests, err := h.requests.ListByFlight(ctx, flight.ID)
			if err != nil {
				return false
			}
			open := 0
			for _, r := range requests {
				if !r.Status.Resolved() {
					open++
				}
			}
			return open <= 1 && len(requests) <= 1
		},
		gen.SliceOf(gen.Float64Range(100, 400)),
	))

	properties.TestingRun(t)
}
