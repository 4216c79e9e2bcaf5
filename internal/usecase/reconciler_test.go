package usecase

import (
	"context"
	"testing"
	"time"

	"fareguard-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessPending_Mixed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})
	ok := h.track(t, "1111", 300)
	bad := h.track(t, "2222", 300)

	h.submitter.submit = func(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error) {
		if input.Flight.ID == bad.ID {
			return failWith("automation", "already credited")(ctx, input)
		}
		return issueCredit(ctx, input)
	}

	for _, f := range []*entity.Flight{ok, bad} {
		_, _, err := h.manager.Create(ctx, entity.EcreditCandidate{FlightID: f.ID, UserID: "u1", OriginalPrice: 300, NewPrice: 250})
		require.NoError(t, err)
	}

	summary, err := h.reconciler.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, ProcessSummary{Found: 2, Completed: 1, Failed: 1}, summary)

	// nothing left on the second pass
	summary, err = h.reconciler.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Found)
	assert.Equal(t, 2, h.submitter.callCount())
}

func TestProcessPending_ResetsStaleFirst(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{staleAfter: 30 * time.Minute})
	flight := h.track(t, "1234", 300)

	request, _, err := h.manager.Create(ctx, entity.EcreditCandidate{FlightID: flight.ID, UserID: "u1", OriginalPrice: 300, NewPrice: 250})
	require.NoError(t, err)

	// a worker claimed the request and crashed an hour ago
	h.manager.now = func() time.Time { return time.Now().Add(-time.Hour) }
	_, err = h.manager.Start(ctx, request.ID)
	require.NoError(t, err)
	h.manager.now = time.Now

	summary, err := h.reconciler.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Reset)
	assert.Equal(t, 1, summary.Completed)

	done, err := h.requests.FindByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EcreditCompleted, done.Status)
	assert.Equal(t, 2, done.Attempts)
}

func TestProcessPending_OverlappingClaim(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})
	flight := h.track(t, "1234", 300)

	request, _, err := h.manager.Create(ctx, entity.EcreditCandidate{FlightID: flight.ID, UserID: "u1", OriginalPrice: 300, NewPrice: 250})
	require.NoError(t, err)

	// another pass claims the request between listing and processing
	var summary ProcessSummary
	_, err = h.manager.Start(ctx, request.ID)
	require.NoError(t, err)
	h.reconciler.processOne(ctx, request, &summary)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, h.submitter.callCount())

	current, err := h.requests.FindByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EcreditInProgress, current.Status)
}

func TestProcessPending_LockedFlightSkipped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})
	flight := h.track(t, "1234", 300)

	_, _, err := h.manager.Create(ctx, entity.EcreditCandidate{FlightID: flight.ID, UserID: "u1", OriginalPrice: 300, NewPrice: 250})
	require.NoError(t, err)
	h.locker.held[flightLockKey(flight.ID)] = true

	summary, err := h.reconciler.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, h.submitter.callCount())
}

func TestProcessPending_BatchLimit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})
	h.reconciler.options.BatchLimit = 2

	for _, n := range []string{"1", "2", "3"} {
		f := h.track(t, n, 300)
		_, _, err := h.manager.Create(ctx, entity.EcreditCandidate{FlightID: f.ID, UserID: "u1", OriginalPrice: 300, NewPrice: 250})
		require.NoError(t, err)
	}

	summary, err := h.reconciler.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Found)

	pending, err := h.manager.ListPending(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
