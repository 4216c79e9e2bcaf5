package usecase

import (
	"context"
	"testing"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/interface/repository/memory"
	"fareguard-service/pkg/logger"
	"fareguard-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceLedger_AppendOnly(t *testing.T) {
	ctx := context.Background()
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	ledger := NewPriceLedger(memory.NewObservationStore(), m, logger.NewNopLogger())

	clock := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}

	empty, err := ledger.Latest(ctx, "f1")
	require.NoError(t, err)
	assert.Nil(t, empty)

	for _, price := range []float64{300, 250, 250, 275} {
		_, err := ledger.Append(ctx, "f1", price, "primary")
		require.NoError(t, err)
	}
	_, err = ledger.Append(ctx, "f2", 99, "secondary")
	require.NoError(t, err)

	history, err := ledger.All(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].ObservedAt.After(history[i-1].ObservedAt))
	}

	latest, err := ledger.Latest(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, 275.0, latest.Price)

	lowest, err := ledger.Lowest(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, 250.0, lowest.Price)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.PriceObservations))
}

func TestPriceLedger_AppendFailure(t *testing.T) {
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	ledger := NewPriceLedger(failingObservations{}, m, logger.NewNopLogger())

	observation, err := ledger.Append(context.Background(), "f1", 100, entity.ObservationSourceOriginal)
	assert.Error(t, err)
	assert.Nil(t, observation)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsCount.WithLabelValues("ledger_append")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PriceObservations))
}
