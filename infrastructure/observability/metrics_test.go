package observability

import (
	"context"
	"testing"
	"time"

	"github.com/arenaplay/arena/config"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

func newTestMetrics(t *testing.T) (*MetricsProvider, *sdkmetric.ManualReader) {
	t.Helper()
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true

	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.initializeWithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestMetricsProvider_ResourceCarriesServiceName(t *testing.T) {
	mp, reader := newTestMetrics(t)
	mp.RecordMatchmakingTick(time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotNil(t, rm.Resource)

	name, ok := rm.Resource.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, config.NewTestConfig().OTelServiceName, name.AsString())
	assert.Equal(t, semconv.SchemaURL, rm.Resource.SchemaURL())
}

func TestMetricsProvider_HandleEvent(t *testing.T) {
	mp, reader := newTestMetrics(t)
	ctx := context.Background()
	winner := int64(2)

	recorded := []events.Event{
		events.NumberDrawnEvent{GameID: 1, Number: 5, Auto: true},
		events.NumberDrawnEvent{GameID: 1, Number: 6},
		events.GameFinishedEvent{GameID: 1, Prize: 100, Commission: 10},
		events.GameStatusChangedEvent{BattleID: 1, NewState: entities.DiceBattleStateSpinning},
		events.GameStatusChangedEvent{BattleID: 1, NewState: entities.DiceBattleStatePlaying},
		events.BattleFinishedEvent{BattleID: 1, WinnerID: &winner, Prize: 60, Reason: entities.DiceFinishReasonWinner},
		events.BattleFinishedEvent{BattleID: 2, Reason: entities.DiceFinishReasonTimeout},
		events.BalanceChangeEvent{Kind: entities.LedgerKindPrize},
	}
	for _, e := range recorded {
		require.NoError(t, mp.HandleEvent(ctx, e))
	}

	assert.Equal(t, int64(2), sumOf(t, reader, BingoDrawsTotal))
	assert.Equal(t, int64(2), sumOf(t, reader, SettlementsTotal))
	assert.Equal(t, int64(160), sumOf(t, reader, SettledPrizeTotal))
	assert.Equal(t, int64(10), sumOf(t, reader, CommissionTotal))
	assert.Equal(t, int64(1), sumOf(t, reader, BattlesFormedTotal))
	assert.Equal(t, int64(2), sumOf(t, reader, BattlesFinishedTotal))
	assert.Equal(t, int64(1), sumOf(t, reader, LedgerEntriesTotal))
}

func TestMetricsProvider_WorkerMetrics(t *testing.T) {
	mp, reader := newTestMetrics(t)

	mp.UpdateActiveAutoDrawLoops(1)
	mp.UpdateActiveAutoDrawLoops(1)
	mp.UpdateActiveAutoDrawLoops(-1)
	mp.RecordMatchmakingTick(20 * time.Millisecond)
	mp.RecordSweep(&entities.SweepReport{BattlesExpired: 2, TicketsExpired: 5, Failures: 1})

	assert.Equal(t, int64(1), sumOf(t, reader, AutoDrawLoopsActive))
	assert.Equal(t, int64(2), sumOf(t, reader, SweepBattlesExpiredTotal))
	assert.Equal(t, int64(5), sumOf(t, reader, SweepTicketsExpiredTotal))
	assert.Equal(t, int64(1), sumOf(t, reader, SweepFailuresTotal))
}

func TestMetricsProvider_NilAndDisabledAreSafe(t *testing.T) {
	var nilProvider *MetricsProvider
	assert.NotPanics(t, func() {
		nilProvider.UpdateActiveAutoDrawLoops(1)
		nilProvider.RecordMatchmakingTick(time.Second)
		nilProvider.RecordSweep(&entities.SweepReport{})
		_ = nilProvider.HandleEvent(context.Background(), events.DiceRolledEvent{})
		_ = nilProvider.Shutdown(context.Background())
	})

	disabled := NewMetricsProvider(config.NewTestConfig())
	require.NoError(t, disabled.Initialize(context.Background()))
	assert.False(t, disabled.isEnabled())
	assert.NotPanics(t, func() { disabled.RecordMatchmakingTick(time.Second) })
}
