package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arenaplay/arena/api"
	"github.com/arenaplay/arena/application"
	"github.com/arenaplay/arena/config"
	"github.com/arenaplay/arena/database"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/events"
	"github.com/arenaplay/arena/infrastructure"
	"github.com/arenaplay/arena/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// meteredEventTypes are counted by the metrics provider once committed
var meteredEventTypes = []events.EventType{
	events.EventTypeBalanceChange,
	events.EventTypeNumberDrawn,
	events.EventTypePrizeUpdated,
	events.EventTypeGameFinished,
	events.EventTypeGameStatusChanged,
	events.EventTypeDiceRolled,
	events.EventTypeBattleFinished,
}

// Run initializes and starts the service, blocking until ctx is cancelled
func Run(ctx context.Context) error {
	cfg := config.Get()
	cfg.ConfigureLogging()
	log.WithField("environment", cfg.Environment).Info("Starting arena...")

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Failed to shut down metrics")
		}
	}()

	subjectMapper := infrastructure.NewEventSubjectMapper()
	var eventPublisher *infrastructure.NATSEventPublisher
	if cfg.NATSServers != "" {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()

		if err := natsClient.EnsureStream(infrastructure.EventStreamName, subjectMapper.GetAllSubjects()); err != nil {
			return fmt.Errorf("failed to ensure event stream: %w", err)
		}
		eventPublisher = infrastructure.NewNATSEventPublisher(natsClient, subjectMapper)
	} else {
		log.Warn("NATS_SERVERS not set, events will only reach local handlers")
		eventPublisher = infrastructure.NewLocalEventPublisher(subjectMapper)
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)
	for _, eventType := range meteredEventTypes {
		uowFactory.RegisterLocalHandler(eventType, metrics.HandleEvent)
	}

	tracker, closeTracker, err := newPresenceTracker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeTracker()

	ledgerHandler := application.NewLedgerHandler(uowFactory)
	if err := ensurePlatformAccount(ctx, ledgerHandler, cfg.PlatformAccountID); err != nil {
		return err
	}

	drawManager := application.NewAutoDrawManager(uowFactory, metrics)
	stopDraws := drawManager.Start(ctx)
	defer stopDraws()

	stopMatchmaking := application.NewMatchmakingWorker(uowFactory, metrics).Start(ctx)
	defer stopMatchmaking()

	cleanupWorker := application.NewCleanupWorker(uowFactory, metrics)
	stopCleanup := cleanupWorker.Start(ctx)
	defer stopCleanup()

	server := api.NewServer(cfg.HTTPAddr, api.Handlers{
		Bingo:    application.NewBingoHandler(uowFactory, drawManager),
		Dice:     application.NewDiceHandler(uowFactory),
		Ledger:   ledgerHandler,
		Presence: application.NewPresenceHandler(tracker, eventPublisher),
		Sweeper:  cleanupWorker,
	})
	stopServer := server.Start()
	defer stopServer()

	log.Info("Arena is running")
	<-ctx.Done()
	log.Info("Shutting down arena...")
	return nil
}

// newPresenceTracker connects to Redis when configured and falls back to an
// in-process tracker otherwise
func newPresenceTracker(ctx context.Context, cfg *config.Config) (application.PresenceTracker, func(), error) {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, presence is tracked in memory")
		return infrastructure.NewMemoryPresenceTracker(), func() {}, nil
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.WithField("addr", cfg.RedisAddr).Info("Connected to redis")
	return infrastructure.NewRedisPresenceTracker(rdb), func() {
		if err := rdb.Close(); err != nil {
			log.WithError(err).Error("Failed to close redis client")
		}
	}, nil
}

// ensurePlatformAccount opens the commission account on first start
func ensurePlatformAccount(ctx context.Context, ledger application.LedgerHandler, platformID int64) error {
	_, err := ledger.OpenAccount(ctx, platformID, "platform")
	switch {
	case err == nil:
		log.WithField("userID", platformID).Info("Created platform account")
		return nil
	case errors.Is(err, entities.ErrAccountExists):
		return nil
	default:
		return fmt.Errorf("failed to ensure platform account: %w", err)
	}
}

// NewCLIFactory builds a unit of work factory for one-shot commands. Events
// are dropped since no broadcast gateway is running.
func NewCLIFactory(db *database.DB) application.UnitOfWorkFactory {
	return infrastructure.NewUnitOfWorkFactory(db, infrastructure.NewNoopEventPublisher())
}
