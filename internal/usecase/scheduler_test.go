package usecase

import (
	"context"
	"testing"
	"time"

	"fareguard-service/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsPassesUntilCancelled(t *testing.T) {
	h := newHarness(t, harnessOptions{submitOnDetect: true})
	flight := h.track(t, "1234", 300)
	h.fares.set("1234", 250)

	scheduler := NewScheduler(h.checker, h.reconciler, 10*time.Millisecond, 10*time.Millisecond, true, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool {
		h.fares.mu.Lock()
		defer h.fares.mu.Unlock()
		return h.fares.calls >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}

	assert.GreaterOrEqual(t, h.submitter.callCount(), 1)
	open, err := h.requests.FindOpenByFlight(context.Background(), flight.ID)
	assert.NoError(t, err)
	assert.Nil(t, open)
}

func TestNewScheduler_Defaults(t *testing.T) {
	s := NewScheduler(nil, nil, 0, -1, false, logger.NewNopLogger())
	assert.Equal(t, 12*time.Hour, s.priceCheckInterval)
	assert.Equal(t, time.Hour, s.reconcileInterval)
}
