package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arenaplay/arena/config"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/events"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// MetricsProvider manages OpenTelemetry metrics for the arena service.
// A nil *MetricsProvider is valid and records nothing.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	drawsCounter         metric.Int64Counter
	autoDrawLoopsGauge   metric.Int64UpDownCounter
	prizeUpdatesCounter  metric.Int64Counter
	settlementsCounter   metric.Int64Counter
	settledPrizeCounter  metric.Int64Counter
	commissionCounter    metric.Int64Counter
	battlesFormedCounter metric.Int64Counter
	battlesFinishedCount metric.Int64Counter
	diceRollsCounter     metric.Int64Counter
	matchmakingTickHist  metric.Float64Histogram
	ledgerEntriesCounter metric.Int64Counter
	sweepBattlesCounter  metric.Int64Counter
	sweepTicketsCounter  metric.Int64Counter
	sweepFailuresCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.mu.Lock()
		mp.initialized = true
		mp.mu.Unlock()
		return nil
	}

	var (
		exporter sdkmetric.Exporter
		err      error
	)
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.mu.Lock()
		mp.initialized = true
		mp.mu.Unlock()
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	return mp.initializeWithReader(reader)
}

// initializeWithReader builds the meter provider on the given reader
func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	res, err := resource.New(context.Background(),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("arena")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) counter(target *metric.Int64Counter, name, description string) error {
	c, err := mp.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit("1"))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	*target = c
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.drawsCounter, BingoDrawsTotal, "Total number of bingo numbers drawn"},
		{&mp.prizeUpdatesCounter, PrizeUpdatesTotal, "Total number of progressive prize increases"},
		{&mp.settlementsCounter, SettlementsTotal, "Total number of settled games"},
		{&mp.settledPrizeCounter, SettledPrizeTotal, "Total prize money paid to winners"},
		{&mp.commissionCounter, CommissionTotal, "Total commission credited to the platform"},
		{&mp.battlesFormedCounter, BattlesFormedTotal, "Total number of dice battles formed"},
		{&mp.battlesFinishedCount, BattlesFinishedTotal, "Total number of dice battles finished"},
		{&mp.diceRollsCounter, DiceRollsTotal, "Total number of dice rolls"},
		{&mp.ledgerEntriesCounter, LedgerEntriesTotal, "Total number of ledger entries"},
		{&mp.sweepBattlesCounter, SweepBattlesExpiredTotal, "Total number of stale battles expired"},
		{&mp.sweepTicketsCounter, SweepTicketsExpiredTotal, "Total number of matchmaking tickets expired"},
		{&mp.sweepFailuresCounter, SweepFailuresTotal, "Total number of battles a sweep failed to expire"},
	}
	for _, c := range counters {
		if err := mp.counter(c.target, c.name, c.description); err != nil {
			return err
		}
	}

	var err error
	mp.autoDrawLoopsGauge, err = mp.meter.Int64UpDownCounter(
		AutoDrawLoopsActive,
		metric.WithDescription("Current number of running auto-draw loops"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create auto-draw loops gauge: %w", err)
	}

	mp.matchmakingTickHist, err = mp.meter.Float64Histogram(
		MatchmakingTickDuration,
		metric.WithDescription("Duration of matchmaking ticks in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create matchmaking tick histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// HandleEvent counts committed domain events. Registered as a local handler
// on the event publisher, so rolled back work is never counted.
func (mp *MetricsProvider) HandleEvent(ctx context.Context, event events.Event) error {
	if !mp.isEnabled() {
		return nil
	}

	switch e := event.(type) {
	case events.BalanceChangeEvent:
		mp.ledgerEntriesCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(LabelKind, string(e.Kind))))
	case events.NumberDrawnEvent:
		mode := DrawModeManual
		if e.Auto {
			mode = DrawModeAuto
		}
		mp.drawsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(LabelMode, mode)))
	case events.PrizeUpdatedEvent:
		mp.prizeUpdatesCounter.Add(ctx, 1)
	case events.GameFinishedEvent:
		game := metric.WithAttributes(attribute.String(LabelGame, GameBingo))
		mp.settlementsCounter.Add(ctx, 1, game)
		mp.settledPrizeCounter.Add(ctx, e.Prize, game)
		mp.commissionCounter.Add(ctx, e.Commission)
	case events.GameStatusChangedEvent:
		if e.NewState == entities.DiceBattleStateSpinning {
			mp.battlesFormedCounter.Add(ctx, 1)
		}
	case events.DiceRolledEvent:
		mp.diceRollsCounter.Add(ctx, 1)
	case events.BattleFinishedEvent:
		mp.battlesFinishedCount.Add(ctx, 1, metric.WithAttributes(attribute.String(LabelReason, string(e.Reason))))
		if e.WinnerID != nil {
			game := metric.WithAttributes(attribute.String(LabelGame, GameDice))
			mp.settlementsCounter.Add(ctx, 1, game)
			mp.settledPrizeCounter.Add(ctx, e.Prize, game)
		}
	}
	return nil
}

// UpdateActiveAutoDrawLoops adjusts the running loop gauge
func (mp *MetricsProvider) UpdateActiveAutoDrawLoops(delta int64) {
	if !mp.isEnabled() {
		return
	}
	mp.autoDrawLoopsGauge.Add(context.Background(), delta)
}

// RecordMatchmakingTick records how long one matchmaking tick took
func (mp *MetricsProvider) RecordMatchmakingTick(duration time.Duration) {
	if !mp.isEnabled() {
		return
	}
	mp.matchmakingTickHist.Record(context.Background(), duration.Seconds())
}

// RecordSweep records the outcome of a cleanup sweep
func (mp *MetricsProvider) RecordSweep(report *entities.SweepReport) {
	if !mp.isEnabled() || report == nil {
		return
	}
	ctx := context.Background()
	mp.sweepBattlesCounter.Add(ctx, int64(report.BattlesExpired))
	mp.sweepTicketsCounter.Add(ctx, report.TicketsExpired)
	mp.sweepFailuresCounter.Add(ctx, int64(report.Failures))
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}
