package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"fareguard-service/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceDropLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})
	flight := h.track(t, "1234", 500)

	// a drop opens a pending request for the difference
	h.fares.set("1234", 420)
	summary, err := h.checker.CheckPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Drops)
	assert.Equal(t, 1, summary.RequestsCreated)

	open, err := h.requests.FindOpenByFlight(ctx, flight.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, entity.EcreditPending, open.Status)
	assert.Equal(t, 80.0, open.PriceDifference)
	assert.Equal(t, 500.0, open.OriginalPrice)
	assert.Equal(t, 420.0, open.NewPrice)

	// a deeper drop while the request is open creates nothing new
	h.fares.set("1234", 410)
	summary, err = h.checker.CheckPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Drops)
	assert.Equal(t, 0, summary.RequestsCreated)

	history, err := h.manager.History(ctx, flight.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	// successful submission completes the request
	processed, err := h.reconciler.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed.Found)
	assert.Equal(t, 1, processed.Completed)

	done, err := h.requests.FindByID(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EcreditCompleted, done.Status)
	require.NotNil(t, done.EcreditAmount)
	assert.Equal(t, 80.0, *done.EcreditAmount)
	assert.NotEmpty(t, done.EcreditCode)
	assert.Equal(t, "automation", done.Channel)
	assert.Equal(t, 1, done.Attempts)
	require.NotNil(t, done.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(365*24*time.Hour), *done.ExpiresAt, time.Hour)
	require.NotNil(t, done.CompletedAt)

	// a price back above the original raises nothing and leaves history alone
	h.fares.set("1234", 510)
	summary, err = h.checker.CheckPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Drops)
	history, err = h.manager.History(ctx, flight.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.EcreditCompleted, history[0].Status)

	assert.Equal(t, []entity.EventType{
		entity.EventRequestCreated,
		entity.EventRequestStarted,
		entity.EventRequestCompleted,
	}, h.events.types())
}

func TestProcess_AllChannelsFail(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})
	h.submitter.submit = failWith("automation", "flight not found in account")
	flight := h.track(t, "1234", 500)

	request, created, err := h.manager.Create(ctx, entity.EcreditCandidate{
		FlightID: flight.ID, UserID: "u1", OriginalPrice: 500, NewPrice: 420,
	})
	require.NoError(t, err)
	require.True(t, created)

	result, err := h.manager.Process(ctx, request)
	require.NoError(t, err)
	assert.Equal(t, entity.EcreditFailed, result.Status)
	assert.Equal(t, "flight not found in account", result.Notes)
	assert.Equal(t, "automation", result.Channel)
	assert.Nil(t, result.EcreditAmount)

	// a failed request frees the flight for a new one
	open, err := h.requests.FindOpenByFlight(ctx, flight.ID)
	require.NoError(t, err)
	assert.Nil(t, open)

	events := h.events.types()
	assert.Equal(t, entity.EventRequestFailed, events[len(events)-1])
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.EcreditTransitions.WithLabelValues("failed")))
}

func TestProcess_PassesLinkedCredential(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})
	flight := h.track(t, "1234", 500)

	request, _, err := h.manager.Create(ctx, entity.EcreditCandidate{FlightID: flight.ID, UserID: "u1", OriginalPrice: 500, NewPrice: 450})
	require.NoError(t, err)

	_, err = h.manager.Process(ctx, request)
	require.NoError(t, err)

	require.Len(t, h.submitter.inputs, 1)
	input := h.submitter.inputs[0]
	require.NotNil(t, input.Credential)
	assert.Equal(t, "dreyes", input.Credential.Username)
	assert.Equal(t, entity.EcreditInProgress, input.Request.Status)
	assert.Equal(t, "WN", input.Flight.AirlineCode)
}

func TestProcess_ValidationFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported airline", func(t *testing.T) {
		h := newHarness(t, harnessOptions{})
		h.submitter.submit = func(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error) {
			return nil, fmt.Errorf("airline %s: %w", input.Flight.AirlineCode, entity.ErrUnsupportedAirline)
		}
		flight := h.track(t, "1234", 500)
		request, _, err := h.manager.Create(ctx, entity.EcreditCandidate{FlightID: flight.ID, UserID: "u1", OriginalPrice: 500, NewPrice: 450})
		require.NoError(t, err)

		result, err := h.manager.Process(ctx, request)
		require.NoError(t, err)
		assert.Equal(t, entity.EcreditFailed, result.Status)
		assert.Equal(t, "airline WN: unsupported airline", result.Notes)
		assert.Empty(t, result.Channel)
	})

	t.Run("flight gone", func(t *testing.T) {
		h := newHarness(t, harnessOptions{})
		request, _, err := h.manager.Create(ctx, entity.EcreditCandidate{FlightID: "missing", UserID: "u1", OriginalPrice: 500, NewPrice: 450})
		require.NoError(t, err)

		result, err := h.manager.Process(ctx, request)
		require.NoError(t, err)
		assert.Equal(t, entity.EcreditFailed, result.Status)
		assert.Equal(t, "flight not found", result.Notes)
		assert.Equal(t, 0, h.submitter.callCount())
	})

	t.Run("user gone", func(t *testing.T) {
		h := newHarness(t, harnessOptions{})
		flight := h.track(t, "1234", 500)
		request, _, err := h.manager.Create(ctx, entity.EcreditCandidate{FlightID: flight.ID, UserID: "ghost", OriginalPrice: 500, NewPrice: 450})
		require.NoError(t, err)

		result, err := h.manager.Process(ctx, request)
		require.NoError(t, err)
		assert.Equal(t, "user not found", result.Notes)
	})
}

func TestCreate_Idempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})
	candidate := entity.EcreditCandidate{FlightID: "f1", UserID: "u1", OriginalPrice: 300, NewPrice: 250}

	first, created, err := h.manager.Create(ctx, candidate)
	require.NoError(t, err)
	assert.True(t, created)

	candidate.NewPrice = 200
	second, created, err := h.manager.Create(ctx, candidate)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 50.0, second.PriceDifference)

	// only the first creation is announced
	assert.Equal(t, []entity.EventType{entity.EventRequestCreated}, h.events.types())
}

func TestCreateAndProcess_Concurrent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})
	flight := h.track(t, "1234", 300)
	candidate := entity.EcreditCandidate{FlightID: flight.ID, UserID: "u1", OriginalPrice: 300, NewPrice: 250}

	var wg sync.WaitGroup
	requests := make([]*entity.EcreditRequest, 50)
	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			request, _, err := h.manager.Create(ctx, candidate)
			assert.NoError(t, err)
			requests[i] = request
		}(i)
	}
	wg.Wait()

	history, err := h.manager.History(ctx, flight.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	for _, request := range requests {
		require.NotNil(t, request)
		assert.Equal(t, history[0].ID, request.ID)
	}

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.manager.Process(ctx, history[0])
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, h.submitter.callCount())
	stored, err := h.requests.FindByID(ctx, history[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EcreditCompleted, stored.Status)
	assert.Equal(t, 1, stored.Attempts)

	created := 0
	for _, eventType := range h.events.types() {
		if eventType == entity.EventRequestCreated {
			created++
		}
	}
	assert.Equal(t, 1, created)
}

func TestCreate_NonPositiveDifference(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})

	for _, newPrice := range []float64{300, 300.004, 350} {
		_, created, err := h.manager.Create(ctx, entity.EcreditCandidate{FlightID: "f1", UserID: "u1", OriginalPrice: 300, NewPrice: newPrice})
		assert.ErrorIs(t, err, entity.ErrNonPositiveDifference, "newPrice=%v", newPrice)
		assert.False(t, created)
	}

	history, err := h.manager.History(ctx, "f1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTransitions_Guarded(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})

	request, _, err := h.manager.Create(ctx, entity.EcreditCandidate{FlightID: "f1", UserID: "u1", OriginalPrice: 300, NewPrice: 250})
	require.NoError(t, err)

	// pending cannot complete without being claimed
	_, err = h.manager.Complete(ctx, request.ID, &entity.Credit{Amount: 50, Code: "WN-1"}, nil)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	started, err := h.manager.Start(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EcreditInProgress, started.Status)
	require.NotNil(t, started.StartedAt)

	// a second claim loses
	_, err = h.manager.Start(ctx, request.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	failed, err := h.manager.Fail(ctx, request.ID, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "submission failed", failed.Notes)

	// resolved requests never move again
	_, err = h.manager.Fail(ctx, request.ID, "again", "", nil)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	_, err = h.manager.Start(ctx, "missing")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestFail_FromPending(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})

	request, _, err := h.manager.Create(ctx, entity.EcreditCandidate{FlightID: "f1", UserID: "u1", OriginalPrice: 300, NewPrice: 250})
	require.NoError(t, err)

	failed, err := h.manager.Fail(ctx, request.ID, "flight cancelled", "", nil)
	require.NoError(t, err)
	assert.Equal(t, entity.EcreditFailed, failed.Status)
	assert.Equal(t, 0, failed.Attempts)
}

func TestResetStale(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})

	request, _, err := h.manager.Create(ctx, entity.EcreditCandidate{FlightID: "f1", UserID: "u1", OriginalPrice: 300, NewPrice: 250})
	require.NoError(t, err)
	_, err = h.manager.Start(ctx, request.ID)
	require.NoError(t, err)

	reset, err := h.manager.ResetStale(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, reset)

	h.manager.now = func() time.Time { return time.Now().Add(time.Hour) }
	reset, err = h.manager.ResetStale(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, reset)

	pending, err := h.manager.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
}
