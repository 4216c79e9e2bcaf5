package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/pkg/logger"
	"fareguard-service/pkg/metrics"
)

// ProcessSummary counts what one reconciliation pass did
type ProcessSummary struct {
	Found     int
	Reset     int
	Completed int
	Failed    int
	Skipped   int
	Errors    int
}

// ReconcilerOptions tunes the reconciliation pass
type ReconcilerOptions struct {
	BatchLimit int
	StaleAfter time.Duration
	LockTTL    time.Duration
}

// Reconciler is the scheduled pass that drives pending requests to a
// terminal state.
type Reconciler struct {
	manager *EcreditManager
	locker  Locker
	options ReconcilerOptions
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(manager *EcreditManager, locker Locker, options ReconcilerOptions, metrics *metrics.Metrics, logger logger.Logger) *Reconciler {
	if options.BatchLimit <= 0 {
		options.BatchLimit = 100
	}
	if options.LockTTL <= 0 {
		options.LockTTL = 5 * time.Minute
	}
	return &Reconciler{
		manager: manager,
		locker:  locker,
		options: options,
		metrics: metrics,
		logger:  logger,
	}
}

// ProcessPending submits every pending request, oldest first. Requests
// stuck in_progress longer than StaleAfter are reset to pending first.
func (r *Reconciler) ProcessPending(ctx context.Context) (ProcessSummary, error) {
	start := time.Now()
	defer func() {
		r.metrics.BatchDuration.WithLabelValues("process_pending").Observe(time.Since(start).Seconds())
	}()

	var summary ProcessSummary

	if r.options.StaleAfter > 0 {
		reset, err := r.manager.ResetStale(ctx, r.options.StaleAfter)
		if err != nil {
			r.metrics.ErrorsCount.WithLabelValues("reset_stale").Inc()
			r.logger.Error("Failed to reset stale ecredit requests", "error", err)
		}
		summary.Reset = reset
	}

	requests, err := r.manager.ListPending(ctx, r.options.BatchLimit)
	if err != nil {
		r.metrics.ErrorsCount.WithLabelValues("list_pending_requests").Inc()
		return summary, fmt.Errorf("failed to list pending ecredit requests: %w", err)
	}
	summary.Found = len(requests)

	if len(requests) == 0 {
		return summary, nil
	}

	r.logger.Info("Processing pending ecredit requests", "count", len(requests))

	for _, request := range requests {
		if ctx.Err() != nil {
			r.logger.Warn("Reconciliation interrupted", "error", ctx.Err())
			break
		}
		r.processOne(ctx, request, &summary)
	}

	r.logger.Info("Pending ecredit requests processed",
		"found", summary.Found,
		"reset", summary.Reset,
		"completed", summary.Completed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"errors", summary.Errors)

	return summary, nil
}

func (r *Reconciler) processOne(ctx context.Context, request *entity.EcreditRequest, summary *ProcessSummary) {
	release, ok, err := r.locker.TryLock(ctx, flightLockKey(request.FlightID), r.options.LockTTL)
	if err != nil {
		r.logger.Warn("Flight lock unavailable, continuing unlocked", "flightId", request.FlightID, "error", err)
	} else if !ok {
		summary.Skipped++
		return
	} else {
		defer release()
	}

	result, err := r.manager.Process(ctx, request)
	switch {
	case errors.Is(err, entity.ErrInvalidTransition):
		// claimed by an overlapping pass
		summary.Skipped++
	case err != nil:
		summary.Errors++
		r.metrics.ErrorsCount.WithLabelValues("process_request").Inc()
		r.logger.Error("Failed to process ecredit request", "requestId", request.ID, "error", err)
	case result.Status == entity.EcreditCompleted:
		summary.Completed++
	case result.Status == entity.EcreditFailed:
		summary.Failed++
	}
}
