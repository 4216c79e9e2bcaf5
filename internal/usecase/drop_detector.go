package usecase

import (
	"fareguard-service/internal/domain/entity"
	"fareguard-service/pkg/utils"
)

// Evaluation is the outcome of comparing an observation with a flight's baseline
type Evaluation struct {
	IsDrop    bool
	Candidate *entity.EcreditCandidate
}

// DropDetector decides whether a fresh observation is a refund-eligible drop
type DropDetector struct {
	minDifference float64
}

// NewDropDetector creates a detector. Drops smaller than minDifference are
// ignored; zero means any positive drop counts.
func NewDropDetector(minDifference float64) *DropDetector {
	if minDifference < 0 {
		minDifference = 0
	}
	return &DropDetector{minDifference: minDifference}
}

// Evaluate compares the observation against the flight's original price,
// not against the previous observation.
func (d *DropDetector) Evaluate(flight *entity.Flight, observation *entity.PriceObservation) Evaluation {
	if flight == nil || observation == nil || observation.Price <= 0 {
		return Evaluation{}
	}
	if observation.Price >= flight.OriginalPrice {
		return Evaluation{}
	}

	difference := utils.RoundCents(flight.OriginalPrice - observation.Price)
	if difference <= 0 || difference < d.minDifference {
		return Evaluation{}
	}

	return Evaluation{
		IsDrop: true,
		Candidate: &entity.EcreditCandidate{
			FlightID:        flight.ID,
			UserID:          flight.UserID,
			OriginalPrice:   flight.OriginalPrice,
			NewPrice:        observation.Price,
			PriceDifference: difference,
		},
	}
}
