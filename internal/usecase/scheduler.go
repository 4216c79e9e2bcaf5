package usecase

import (
	"context"
	"time"

	"fareguard-service/pkg/logger"
)

// Scheduler runs the price-check and reconciliation passes on their own
// tickers. The passes are independent and may overlap.
type Scheduler struct {
	checker            *PriceChecker
	reconciler         *Reconciler
	priceCheckInterval time.Duration
	reconcileInterval  time.Duration
	runOnStart         bool
	logger             logger.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(checker *PriceChecker, reconciler *Reconciler, priceCheckInterval, reconcileInterval time.Duration, runOnStart bool, logger logger.Logger) *Scheduler {
	if priceCheckInterval <= 0 {
		priceCheckInterval = 12 * time.Hour
	}
	if reconcileInterval <= 0 {
		reconcileInterval = time.Hour
	}
	return &Scheduler{
		checker:            checker,
		reconciler:         reconciler,
		priceCheckInterval: priceCheckInterval,
		reconcileInterval:  reconcileInterval,
		runOnStart:         runOnStart,
		logger:             logger,
	}
}

// Run blocks until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	done := make(chan struct{}, 2)

	go func() {
		s.loop(ctx, "price check", s.priceCheckInterval, func(ctx context.Context) {
			if _, err := s.checker.CheckPrices(ctx); err != nil {
				s.logger.Error("Error checking prices", "error", err)
			}
		})
		done <- struct{}{}
	}()

	go func() {
		s.loop(ctx, "reconcile", s.reconcileInterval, func(ctx context.Context) {
			if _, err := s.reconciler.ProcessPending(ctx); err != nil {
				s.logger.Error("Error processing pending ecredit requests", "error", err)
			}
		})
		done <- struct{}{}
	}()

	<-done
	<-done
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, pass func(ctx context.Context)) {
	if s.runOnStart {
		pass(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler loop stopped", "pass", name)
			return
		case <-ticker.C:
			s.logger.Info("Running scheduled pass", "pass", name)
			pass(ctx)
		}
	}
}
