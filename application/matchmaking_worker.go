package application

import (
	"context"
	"errors"
	"time"

	"github.com/arenaplay/arena/config"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/interfaces"
	"github.com/arenaplay/arena/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// TickReport summarises one matchmaking pass
type TickReport struct {
	BattlesFormed   int
	BattlesPromoted int
	Failures        int
}

// MatchmakingWorker forms dice battles from the waiting queue on a fixed interval
type MatchmakingWorker struct {
	uowFactory UnitOfWorkFactory
	metrics    *observability.MetricsProvider
	now        func() time.Time
}

// NewMatchmakingWorker creates a new matchmaking worker
func NewMatchmakingWorker(uowFactory UnitOfWorkFactory, metrics *observability.MetricsProvider) *MatchmakingWorker {
	return &MatchmakingWorker{
		uowFactory: uowFactory,
		metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start runs Tick every MatchmakingInterval until ctx is cancelled or the
// returned cleanup function is called
func (w *MatchmakingWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	interval := config.Get().MatchmakingInterval

	go func() {
		log.WithField("interval", interval).Info("Matchmaking worker started")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Matchmaking worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Matchmaking worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				w.Tick(ctx)
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// Tick forms as many battles as the queue allows and promotes battles whose
// spin reveal has ended. Each battle is formed in its own transaction.
func (w *MatchmakingWorker) Tick(ctx context.Context) *TickReport {
	started := time.Now()
	report := &TickReport{}
	defer func() {
		w.metrics.RecordMatchmakingTick(time.Since(started))
	}()

	buckets, err := inUnitOfWork(ctx, w.uowFactory, func(uow UnitOfWork, svc *serviceSet) ([]entities.StakeBucket, error) {
		return svc.dice.GetStakeBuckets(ctx)
	})
	if err != nil {
		log.WithError(err).Error("Failed to read matchmaking queue")
		report.Failures++
		return report
	}

	for _, bucket := range buckets {
		formed, failed := w.drainBucket(ctx, bucket)
		report.BattlesFormed += formed
		report.Failures += failed
	}

	promoted, failed := w.promoteSpinning(ctx)
	report.BattlesPromoted = promoted
	report.Failures += failed

	if report.BattlesFormed > 0 || report.BattlesPromoted > 0 || report.Failures > 0 {
		log.WithFields(log.Fields{
			"battles_formed":   report.BattlesFormed,
			"battles_promoted": report.BattlesPromoted,
			"failures":         report.Failures,
		}).Info("Matchmaking tick completed")
	}
	return report
}

// drainBucket forms battles at one stake until fewer than three valid tickets remain
func (w *MatchmakingWorker) drainBucket(ctx context.Context, bucket entities.StakeBucket) (formed, failed int) {
	cfg := config.Get()

	for remaining := bucket.Waiting; remaining >= entities.DicePlayersPerBattle; remaining -= entities.DicePlayersPerBattle {
		params := interfaces.BattleParams{
			MultiplierBps: cfg.DiceMultiplierBps(),
			SpinReveal:    cfg.SpinRevealDuration,
			Now:           w.now(),
		}

		battle, err := inUnitOfWork(ctx, w.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.DiceBattle, error) {
			return svc.dice.FormBattle(ctx, bucket.Stake, params)
		})

		logger := log.WithField("stake", bucket.Stake)
		switch {
		case err == nil && battle != nil:
			formed++
			continue
		case err == nil:
			// Bucket ran dry; dropped tickets are committed as timed out
		case errors.Is(err, entities.ErrRefundRequired):
			// Rolling back the transaction already reversed every lock in the group
			logger.WithError(err).Error("Battle formation failed after locking stakes, group rolled back")
			failed++
		default:
			logger.WithError(err).Error("Failed to form battle")
			failed++
		}
		return formed, failed
	}
	return formed, failed
}

// promoteSpinning moves every battle whose reveal has ended into play
func (w *MatchmakingWorker) promoteSpinning(ctx context.Context) (promoted, failed int) {
	now := w.now()

	ids, err := inUnitOfWork(ctx, w.uowFactory, func(uow UnitOfWork, svc *serviceSet) ([]int64, error) {
		return svc.dice.GetSpinningDue(ctx, now)
	})
	if err != nil {
		log.WithError(err).Error("Failed to get spinning battles")
		return 0, 1
	}

	for _, id := range ids {
		_, err := inUnitOfWork(ctx, w.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.DiceBattle, error) {
			return svc.dice.StartPlaying(ctx, id, now)
		})
		if err != nil {
			if errors.Is(err, entities.ErrInvalidStateTransition) {
				// A roll promoted it first
				continue
			}
			log.WithError(err).WithField("battle_id", id).Error("Failed to promote battle")
			failed++
			continue
		}
		promoted++
	}
	return promoted, failed
}
