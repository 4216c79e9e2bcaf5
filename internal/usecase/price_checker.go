package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/domain/repository"
	"fareguard-service/pkg/logger"
	"fareguard-service/pkg/metrics"
)

// CheckSummary counts what one price-check pass did
type CheckSummary struct {
	Checked         int
	Unavailable     int
	Drops           int
	RequestsCreated int
	Skipped         int
	Failures        int
}

// PriceCheckerOptions tunes the price-check pass
type PriceCheckerOptions struct {
	SubmitOnDetect bool
	LockTTL        time.Duration
}

// PriceChecker is the scheduled pass that re-prices every active flight
type PriceChecker struct {
	flights  repository.FlightRepository
	fares    FareLookup
	ledger   *PriceLedger
	detector *DropDetector
	manager  *EcreditManager
	locker   Locker
	options  PriceCheckerOptions
	metrics  *metrics.Metrics
	logger   logger.Logger
	now      func() time.Time
}

// NewPriceChecker creates a new price checker
func NewPriceChecker(
	flights repository.FlightRepository,
	fares FareLookup,
	ledger *PriceLedger,
	detector *DropDetector,
	manager *EcreditManager,
	locker Locker,
	options PriceCheckerOptions,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *PriceChecker {
	if options.LockTTL <= 0 {
		options.LockTTL = 5 * time.Minute
	}
	return &PriceChecker{
		flights:  flights,
		fares:    fares,
		ledger:   ledger,
		detector: detector,
		manager:  manager,
		locker:   locker,
		options:  options,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckPrices looks up the current fare of every active, not yet departed
// flight and raises ecredit requests for drops. A failing flight is logged
// and counted; it never stops the pass.
func (c *PriceChecker) CheckPrices(ctx context.Context) (CheckSummary, error) {
	start := c.now()
	defer func() {
		c.metrics.BatchDuration.WithLabelValues("check_prices").Observe(time.Since(start).Seconds())
	}()

	var summary CheckSummary

	flights, err := c.flights.ListActive(ctx)
	if err != nil {
		c.metrics.ErrorsCount.WithLabelValues("list_active_flights").Inc()
		c.logger.Error("Failed to list active flights", "error", err)
		return summary, fmt.Errorf("failed to list active flights: %w", err)
	}

	c.logger.Info("Starting price check", "flights", len(flights))

	for _, flight := range flights {
		if ctx.Err() != nil {
			c.logger.Warn("Price check interrupted", "error", ctx.Err())
			break
		}
		if flight.Departed(c.now()) {
			summary.Skipped++
			continue
		}

		if err := c.checkFlight(ctx, flight, &summary); err != nil {
			summary.Failures++
			c.metrics.ErrorsCount.WithLabelValues("check_flight").Inc()
			c.logger.Error("Failed to check flight price",
				"flightId", flight.ID,
				"error", err)
			// Continue with the next flight
		}
	}

	c.logger.Info("Price check completed",
		"checked", summary.Checked,
		"unavailable", summary.Unavailable,
		"drops", summary.Drops,
		"requestsCreated", summary.RequestsCreated,
		"skipped", summary.Skipped,
		"failures", summary.Failures)

	return summary, nil
}

func (c *PriceChecker) checkFlight(ctx context.Context, flight *entity.Flight, summary *CheckSummary) error {
	release, ok, err := c.locker.TryLock(ctx, flightLockKey(flight.ID), c.options.LockTTL)
	if err != nil {
		c.logger.Warn("Flight lock unavailable, continuing unlocked", "flightId", flight.ID, "error", err)
	} else if !ok {
		c.logger.Debug("Flight pipeline already running elsewhere", "flightId", flight.ID)
		summary.Skipped++
		return nil
	} else {
		defer release()
	}

	quote, ok := c.fares.Lookup(ctx, flight.Itinerary())
	if !ok {
		summary.Unavailable++
		c.logger.Warn("Fare unavailable", "flightId", flight.ID, "flightNumber", flight.FlightNumber)
		return nil
	}
	summary.Checked++

	observation, err := c.ledger.Append(ctx, flight.ID, quote.Price, quote.Source)
	if err != nil {
		return err
	}

	evaluation := c.detector.Evaluate(flight, observation)
	if !evaluation.IsDrop {
		c.logger.Debug("No price drop",
			"flightId", flight.ID,
			"originalPrice", flight.OriginalPrice,
			"price", observation.Price)
		return nil
	}

	summary.Drops++
	c.metrics.PriceDrops.Inc()
	c.logger.Info("Price drop detected",
		"flightId", flight.ID,
		"originalPrice", flight.OriginalPrice,
		"price", observation.Price,
		"priceDifference", evaluation.Candidate.PriceDifference)

	request, created, err := c.manager.Create(ctx, *evaluation.Candidate)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	summary.RequestsCreated++

	if !c.options.SubmitOnDetect {
		return nil
	}
	if _, err := c.manager.Process(ctx, request); err != nil && !errors.Is(err, entity.ErrInvalidTransition) {
		// the request stays pending or in_progress; reconciliation picks it up
		c.logger.Warn("Immediate ecredit submission did not finish", "requestId", request.ID, "error", err)
	}
	return nil
}

func flightLockKey(flightID string) string {
	return "fareguard:flight:" + flightID
}
