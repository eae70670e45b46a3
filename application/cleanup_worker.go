package application

import (
	"context"
	"time"

	"github.com/arenaplay/arena/config"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// CleanupWorker expires abandoned battles and stale matchmaking tickets
type CleanupWorker struct {
	uowFactory UnitOfWorkFactory
	metrics    *observability.MetricsProvider
	now        func() time.Time
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(uowFactory UnitOfWorkFactory, metrics *observability.MetricsProvider) *CleanupWorker {
	return &CleanupWorker{
		uowFactory: uowFactory,
		metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start sweeps every CleanupInterval. A zero interval disables the periodic
// sweep; RunSweep can still be called on demand.
func (w *CleanupWorker) Start(ctx context.Context) func() {
	interval := config.Get().CleanupInterval
	if interval <= 0 {
		log.Info("Periodic cleanup sweep disabled")
		return func() {}
	}

	stopChan := make(chan struct{})
	go func() {
		log.WithField("interval", interval).Info("Cleanup worker started")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Cleanup worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Cleanup worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				w.RunSweep(ctx)
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// RunSweep force-finishes battles older than BattleTimeout, refunding each
// stake once, and times out tickets older than TicketTimeout. Every battle is
// expired in its own transaction so one failure does not block the rest.
func (w *CleanupWorker) RunSweep(ctx context.Context) *entities.SweepReport {
	cfg := config.Get()
	now := w.now()
	battleCutoff := now.Add(-cfg.BattleTimeout)
	ticketCutoff := now.Add(-cfg.TicketTimeout)

	report := &entities.SweepReport{}
	defer w.metrics.RecordSweep(report)

	ids, err := inUnitOfWork(ctx, w.uowFactory, func(uow UnitOfWork, svc *serviceSet) ([]int64, error) {
		return svc.cleanup.GetStaleBattleIDs(ctx, battleCutoff)
	})
	if err != nil {
		log.WithError(err).Error("Failed to list stale battles")
		report.Failures++
	}

	for _, id := range ids {
		battle, err := inUnitOfWork(ctx, w.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.DiceBattle, error) {
			return svc.cleanup.ExpireBattle(ctx, id, battleCutoff, now)
		})
		if err != nil {
			log.WithError(err).WithField("battle_id", id).Error("Failed to expire battle")
			report.Failures++
			continue
		}
		if battle == nil {
			continue
		}
		report.BattlesExpired++
		if battle.State != entities.DiceBattleStateWaiting {
			for _, p := range battle.Players {
				report.StakesRefunded += p.Stake
			}
		}
	}

	expired, err := inUnitOfWork(ctx, w.uowFactory, func(uow UnitOfWork, svc *serviceSet) (int64, error) {
		return svc.cleanup.ExpireTickets(ctx, ticketCutoff)
	})
	if err != nil {
		log.WithError(err).Error("Failed to expire tickets")
		report.Failures++
	}
	report.TicketsExpired = expired

	log.WithFields(log.Fields{
		"battles_expired": report.BattlesExpired,
		"stakes_refunded": report.StakesRefunded,
		"tickets_expired": report.TicketsExpired,
		"failures":        report.Failures,
	}).Info("Cleanup sweep completed")

	return report
}
