package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fareguard-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEcreditStore_OneOpenRequestPerFlight(t *testing.T) {
	ctx := context.Background()
	store := NewEcreditStore()

	first, created, err := store.CreateIfNoneOpen(ctx, &entity.EcreditRequest{FlightID: "f1", Status: entity.EcreditPending})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := store.CreateIfNoneOpen(ctx, &entity.EcreditRequest{FlightID: "f1", Status: entity.EcreditPending})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	_, err = store.Transition(ctx, first.ID, []entity.EcreditStatus{entity.EcreditPending},
		entity.EcreditUpdate{Status: entity.EcreditFailed, Notes: "login failed"})
	require.NoError(t, err)

	open, err := store.FindOpenByFlight(ctx, "f1")
	require.NoError(t, err)
	assert.Nil(t, open)

	third, created, err := store.CreateIfNoneOpen(ctx, &entity.EcreditRequest{FlightID: "f1", Status: entity.EcreditPending})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, third.ID)

	history, err := store.ListByFlight(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, third.ID, history[0].ID)
}

func TestEcreditStore_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	store := NewEcreditStore()

	var wg sync.WaitGroup
	var created int32
	ids := make([]string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, ok, err := store.CreateIfNoneOpen(ctx, &entity.EcreditRequest{FlightID: "f1", Status: entity.EcreditPending})
			if !assert.NoError(t, err) {
				return
			}
			if ok {
				atomic.AddInt32(&created, 1)
			}
			ids[i] = req.ID
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	history, err := store.ListByFlight(ctx, "f1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestEcreditStore_TransitionGuard(t *testing.T) {
	ctx := context.Background()
	store := NewEcreditStore()

	req, _, err := store.CreateIfNoneOpen(ctx, &entity.EcreditRequest{FlightID: "f1", Status: entity.EcreditPending})
	require.NoError(t, err)

	_, err = store.Transition(ctx, req.ID, []entity.EcreditStatus{entity.EcreditInProgress},
		entity.EcreditUpdate{Status: entity.EcreditCompleted})
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	_, err = store.Transition(ctx, "missing", []entity.EcreditStatus{entity.EcreditPending},
		entity.EcreditUpdate{Status: entity.EcreditInProgress})
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestObservationStore_OrderedHistory(t *testing.T) {
	ctx := context.Background()
	store := NewObservationStore()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, &entity.PriceObservation{FlightID: "f1", Price: 300, ObservedAt: base.Add(2 * time.Hour)}))
	require.NoError(t, store.Append(ctx, &entity.PriceObservation{FlightID: "f1", Price: 320, ObservedAt: base}))
	require.NoError(t, store.Append(ctx, &entity.PriceObservation{FlightID: "f1", Price: 280, ObservedAt: base.Add(time.Hour)}))

	history, err := store.ListByFlight(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 320.0, history[0].Price)
	assert.Equal(t, 300.0, history[2].Price)

	latest, err := store.Latest(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, 300.0, latest.Price)

	lowest, err := store.Lowest(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, 280.0, lowest.Price)

	empty, err := store.Latest(ctx, "none")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestNotificationStore_MarkRead(t *testing.T) {
	ctx := context.Background()
	store := NewNotificationStore()

	n := &entity.Notification{UserID: "u1", Type: entity.NotificationPriceDrop, Title: "drop"}
	require.NoError(t, store.Save(ctx, n))
	require.NoError(t, store.Save(ctx, &entity.Notification{UserID: "u2", Type: entity.NotificationSystem}))

	unread, err := store.ListByUser(ctx, "u1", true, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	require.NoError(t, store.MarkRead(ctx, n.ID))
	unread, err = store.ListByUser(ctx, "u1", true, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)

	assert.ErrorIs(t, store.MarkRead(ctx, "missing"), entity.ErrNotFound)
}
